package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/http/handlers"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter[T any]() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		var req T
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBindError(t *testing.T, w *httptest.ResponseRecorder) bindErrorResponse {
	t.Helper()

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}

func rulesByField(fields []handlers.FieldError) map[string]handlers.FieldError {
	found := map[string]handlers.FieldError{}
	for _, fe := range fields {
		found[fe.Field] = fe
	}
	return found
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter[user.RegisterRequest]()

	resp := decodeBindError(t, postBind(r, `{"email":"not-an-email","password":"abc"}`))

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"fullName": "required",
		"email":    "email",
		"password": "min",
	}

	found := rulesByField(resp.Error.Details.Fields)
	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_DomainTags(t *testing.T) {
	t.Run("account type and currency", func(t *testing.T) {
		r := bindRouter[account.CreateAccountRequest]()

		resp := decodeBindError(t, postBind(r, `{"accountName":"Main","accountType":"Crypto","currency":"usd"}`))

		found := rulesByField(resp.Error.Details.Fields)
		if found["accountType"].Rule != "account_type" {
			t.Fatalf("accountType rule = %q, fields=%+v", found["accountType"].Rule, resp.Error.Details.Fields)
		}
		if found["currency"].Rule != "currency" {
			t.Fatalf("currency rule = %q, fields=%+v", found["currency"].Rule, resp.Error.Details.Fields)
		}
	})

	t.Run("valid account request passes", func(t *testing.T) {
		r := bindRouter[account.CreateAccountRequest]()

		w := postBind(r, `{"accountName":"Main","accountType":"Savings","balance":"10.00"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("role names are checked per element", func(t *testing.T) {
		r := bindRouter[user.SetRolesRequest]()

		resp := decodeBindError(t, postBind(r, `{"roles":["ROLE_USER","ROLE_ROOT"]}`))

		found := rulesByField(resp.Error.Details.Fields)
		fe, ok := found["roles[1]"]
		if !ok || fe.Rule != "role_name" {
			t.Fatalf("expected roles[1] role_name error, got %+v", resp.Error.Details.Fields)
		}
	})
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter[account.CreateAccountRequest]()

	resp := decodeBindError(t, postBind(r, `{"accountName":42,"accountType":"Savings"}`))

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "accountName" {
		t.Fatalf("expected detail field to be accountName, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 {
		t.Fatalf("expected at least one field error in details.fields")
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Rule != "type" {
		t.Fatalf("expected fields[0].rule=type, got %q", fieldErr.Rule)
	}
}

func TestBindJSON_MalformedAmount(t *testing.T) {
	r := bindRouter[transaction.AppendRequest]()

	for _, body := range []string{
		`{"amount":"abc","description":"x"}`,
		`{"amount":true,"description":"x"}`,
	} {
		resp := decodeBindError(t, postBind(r, body))
		if resp.Error.Details.JSON != "invalid_number" {
			t.Fatalf("%s: expected invalid_number, got %+v", body, resp.Error.Details)
		}
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := bindRouter[transaction.AppendRequest]()

	resp := decodeBindError(t, postBind(r, `{"amount":}`))
	if resp.Error.Details.JSON != "invalid_json_syntax" {
		t.Fatalf("unexpected json detail %q", resp.Error.Details.JSON)
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(64))
	r.POST("/bind", func(ctx *gin.Context) {
		var req transaction.AppendRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"amount":"1.00","description":"` + strings.Repeat("x", 200) + `"}`
	w := postBind(r, body)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
