package grpcapi

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Заголовки, которые проставляет внешний шлюз аутентификации.
const (
	ProfessionalIDHeader = "x-mci-professional-id"
	RoleHeader           = "x-mci-role"
)

// PrincipalFromContext читает аутентифицированного вызывающего из метаданных.
// Роль из заголовка справочная: права решает роль, сохранённая в базе.
func PrincipalFromContext(ctx context.Context) (authz.Principal, error) {
	raw := header(ctx, ProfessionalIDHeader)
	if raw == "" {
		return authz.Principal{}, status.Error(codes.Unauthenticated, ProfessionalIDHeader+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return authz.Principal{}, status.Errorf(codes.Unauthenticated, "invalid %s: %v", ProfessionalIDHeader, err)
	}
	p := authz.Principal{ID: id}
	if role, err := model.ParseRole(header(ctx, RoleHeader)); err == nil {
		p.Role = role
	}
	return p, nil
}

// WithPrincipal добавляет вызывающего в исходящие метаданные (для клиентов и тестов).
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	pairs := []string{ProfessionalIDHeader, p.ID.String()}
	if p.Role != "" {
		pairs = append(pairs, RoleHeader, string(p.Role))
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

func header(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
