// Package audit registra eventos administrativos de la red: quién hizo qué
// sobre qué blog. Hoy sale por el logger estructurado; el sink puede cambiar
// sin tocar a los llamadores.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/multiblog/internal/observability/logger"
)

// Eventos auditados.
const (
	EventBlogCreated        = "blog_created"
	EventUserAdded          = "user_added"
	EventUserRemoved        = "user_removed"
	EventSyncedGroupAdded   = "synced_group_added"
	EventSyncedGroupRemoved = "synced_group_removed"
	EventImpersonation      = "impersonation"
)

// Log emite un evento de auditoría con el actor efectivo y campos extra.
func Log(ctx context.Context, event, actor string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("event", event), logger.ActorLogin(actor))
	all = append(all, fields...)
	logger.From(ctx).Named("audit").Info("audit", all...)
}
