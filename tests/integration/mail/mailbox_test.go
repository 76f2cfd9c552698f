package mail

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"postbus/internal/testutil"
	"postbus/tests/integration"
)

func Test_Mailbox(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	do := func(t *testing.T, method string, url string, accessToken string, data string) (*http.Response, string) {
		t.Helper()

		var reqBody io.Reader
		if data != "" {
			reqBody = strings.NewReader(data)
		}

		req, err := http.NewRequest(method, url, reqBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("full mailbox flow", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			registered, err := s.AuthService.Register(t.Context(), "jan@example.com", "password123", nil)
			require.NoError(t, err)

			access := registered.Tokens.Access.Value
			userID := registered.User.ID.String()

			// Mailbox starts empty
			resp, body := do(t, http.MethodGet, srvURL+"/api/mails/user/"+userID+"/count", access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"unreadCount": 0, "totalCount": 0}`, body)

			// Deliver a mail
			resp, body = do(t, http.MethodPost, srvURL+"/api/mails", access, `{
				"userId": "`+userID+`",
				"from": "noreply@example.com",
				"to": "jan@example.com",
				"subject": "Welcome",
				"body": "Hello Jan"
			}`)
			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)

			var created struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &created))

			// It shows up unread
			resp, body = do(t, http.MethodGet, srvURL+"/api/mails/user/"+userID+"/count", access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"unreadCount": 1, "totalCount": 1}`, body)

			// Read it
			resp, body = do(t, http.MethodPatch, srvURL+"/api/mails/"+created.ID+"/read", access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = do(t, http.MethodGet, srvURL+"/api/mails/user/"+userID+"/count", access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{"unreadCount": 0, "totalCount": 1}`, body)

			// And throw it away
			resp, body = do(t, http.MethodDelete, srvURL+"/api/mails/"+created.ID, access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = do(t, http.MethodGet, srvURL+"/api/mails/user/"+userID, access, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `[]`, body)
		})
	})

	t.Run("foreign mailbox is off limits", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			owner, err := s.AuthService.Register(t.Context(), "owner@example.com", "password123", nil)
			require.NoError(t, err)
			stranger, err := s.AuthService.Register(t.Context(), "stranger@example.com", "password123", nil)
			require.NoError(t, err)

			resp, body := do(t, http.MethodGet, srvURL+"/api/mails/user/"+owner.User.ID.String(), stranger.Tokens.Access.Value, "")

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Access denied to this user's data"
				}`, body)
		})
	})
}
