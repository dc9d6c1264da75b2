package grpcserver

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/and161185/league-keeper/internal/model"
)

type ctxKey string

const userKey ctxKey = "lk.user"

// WithUser stores the authenticated caller in context.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromCtx fetches the caller from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// ContextUsers resolves the command caller from the request context.
// Anonymous requests resolve to a nil user.
type ContextUsers struct{}

// CurrentUser implements command.UserProvider.
func (ContextUsers) CurrentUser(ctx context.Context) (*model.User, error) {
	u, _ := UserFromCtx(ctx)
	return u, nil
}

var errNoBearer = errors.New("no bearer token")

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errNoBearer
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errNoBearer
}
