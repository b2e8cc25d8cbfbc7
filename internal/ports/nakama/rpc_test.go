package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"tictacchec/internal/app"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// fakeNakama overrides the match calls quick_match makes. Other methods panic.
type fakeNakama struct {
	runtime.NakamaModule
	matches   []*api.Match
	listQuery string
	created   int
	listErr   error
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	f.listQuery = query
	return f.matches, f.listErr
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.created++
	return fmt.Sprintf("%s-%d", module, f.created), nil
}

func TestRpcQuickMatch(t *testing.T) {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user-1")

	t.Run("JoinsWaitingMatch", func(t *testing.T) {
		nk := &fakeNakama{matches: []*api.Match{{MatchId: "waiting.node"}}}
		raw, err := rpcQuickMatch(ctx, noopLogger{}, nil, nk, "")
		if err != nil {
			t.Fatalf("rpcQuickMatch error: %v", err)
		}
		var resp QuickMatchResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.MatchID != "waiting.node" || resp.IsNew {
			t.Fatalf("response = %+v", resp)
		}
		if nk.listQuery != "+label.open:>=1 +label.game:tictacchec" {
			t.Fatalf("query = %q", nk.listQuery)
		}
	})

	t.Run("CreatesWhenNoneWaiting", func(t *testing.T) {
		nk := &fakeNakama{}
		raw, err := rpcQuickMatch(ctx, noopLogger{}, nil, nk, "")
		if err != nil {
			t.Fatalf("rpcQuickMatch error: %v", err)
		}
		var resp QuickMatchResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.MatchID != MatchNameTicTacChec+"-1" || !resp.IsNew {
			t.Fatalf("response = %+v", resp)
		}
	})

	t.Run("ListFailure", func(t *testing.T) {
		nk := &fakeNakama{listErr: errors.New("db down")}
		if _, err := rpcQuickMatch(ctx, noopLogger{}, nil, nk, ""); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestRpcSessionToken_IssuesVerifiableToken(t *testing.T) {
	t.Cleanup(func() { sessionTokens = nil })
	sessionTokens = app.NewSessionTokens("test-secret", "issuer", time.Minute)

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")

	raw, err := rpcSessionToken(ctx, noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatalf("rpcSessionToken error: %v", err)
	}
	var resp sessionTokenResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn <= 0 {
		t.Fatalf("response = %+v", resp)
	}

	token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse token error: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "user123" || claims["iss"] != "issuer" {
		t.Fatalf("claims = %v", claims)
	}

	subject, err := sessionTokens.Verify(resp.Token)
	if err != nil || subject != "user123" {
		t.Fatalf("Verify = %q, %v", subject, err)
	}
}

func TestRpcSessionToken_Rejects(t *testing.T) {
	t.Cleanup(func() { sessionTokens = nil })

	if _, err := rpcSessionToken(context.Background(), noopLogger{}, nil, nil, ""); err == nil {
		t.Fatal("expected error without a user")
	}

	sessionTokens = app.NewSessionTokens("", "issuer", time.Minute)
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user123")
	if _, err := rpcSessionToken(ctx, noopLogger{}, nil, nil, ""); err == nil {
		t.Fatal("expected error without a secret")
	}
}
