package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptestutil "github.com/opst/tabserve/internal/testutils/http"
	"github.com/opst/tabserve/pkg/auth"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func TestIssueVerify(t *testing.T) {
	t.Run("issued token is verified", func(t *testing.T) {
		token, err := auth.Issue(key, "tabserve", "alice", time.Hour, "iris")
		require.NoError(t, err)

		claims, err := auth.Verify(key, "tabserve", token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.True(t, claims.Allows("iris"))
		assert.False(t, claims.Allows("house"))
	})

	t.Run("token without tasks allows all", func(t *testing.T) {
		token, err := auth.Issue(key, "", "bob", time.Hour)
		require.NoError(t, err)
		claims, err := auth.Verify(key, "", token)
		require.NoError(t, err)
		assert.True(t, claims.Allows("anything"))
	})

	for name, tc := range map[string]struct {
		token  func(t *testing.T) string
		issuer string
	}{
		"expired": {
			token: func(t *testing.T) string {
				tok, err := auth.Issue(key, "", "alice", -time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
		"signed with other key": {
			token: func(t *testing.T) string {
				tok, err := auth.Issue([]byte("another key"), "", "alice", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		"issued by other": {
			token: func(t *testing.T) string {
				tok, err := auth.Issue(key, "someone", "alice", time.Hour)
				require.NoError(t, err)
				return tok
			},
			issuer: "tabserve",
		},
		"malformed": {
			token: func(*testing.T) string { return "not.a.token" },
		},
	} {
		t.Run(name+" token is ErrInvalidToken", func(t *testing.T) {
			_, err := auth.Verify(key, tc.issuer, tc.token(t))
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestBearer(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	testee := auth.Bearer(key, "")(ok)

	irisOnly, err := auth.Issue(key, "", "alice", time.Hour, "iris")
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		target string
		opts   []httptestutil.RequestOption
		code   int
	}{
		"allowed task": {
			target: "/invocations?taskid=iris",
			opts:   []httptestutil.RequestOption{httptestutil.Bearer(irisOnly)},
			code:   http.StatusNoContent,
		},
		"no token": {
			target: "/invocations?taskid=iris",
			code:   http.StatusUnauthorized,
		},
		"broken token": {
			target: "/invocations?taskid=iris",
			opts:   []httptestutil.RequestOption{httptestutil.Bearer("broken")},
			code:   http.StatusUnauthorized,
		},
		"not allowed task": {
			target: "/invocations?taskid=house",
			opts:   []httptestutil.RequestOption{httptestutil.Bearer(irisOnly)},
			code:   http.StatusForbidden,
		},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			c, resp := httptestutil.Post(e, tc.target, nil, tc.opts...)
			err := testee(c)
			if tc.code == http.StatusNoContent {
				require.NoError(t, err)
				assert.Equal(t, tc.code, resp.Code)
				return
			}
			herr := new(echo.HTTPError)
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tc.code, herr.Code)
		})
	}
}
