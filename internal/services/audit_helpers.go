package services

import "context"

// recordAudit appends an entry to the trail. Audit failures are swallowed so
// the operation being described still succeeds for the caller.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	_ = audit.Log(ctx, entry)
}
