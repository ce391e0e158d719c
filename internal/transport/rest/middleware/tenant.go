// Package middleware carries request-scoped identity into handler context.
// Authentication itself happens upstream (gateway); this layer trusts the
// gateway-set headers and only enforces their presence.
package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	TenantIDKey   contextKey = "tenantId"
	EmployeeIDKey contextKey = "employeeId"
)

// HeaderTenantID carries the authenticated tenant, set by the gateway.
const HeaderTenantID = "X-Tenant-ID"

// HeaderEmployeeID carries the authenticated employee, set by the gateway.
const HeaderEmployeeID = "X-Employee-ID"

// RequireTenant rejects requests without a tenant header and stores tenant
// and employee ids in the request context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(HeaderTenantID)
		if tenantID == "" {
			http.Error(w, `{"error":"missing tenant header"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
		if employeeID := r.Header.Get(HeaderEmployeeID); employeeID != "" {
			ctx = context.WithValue(ctx, EmployeeIDKey, employeeID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID extracts the tenant id from context.
func GetTenantID(ctx context.Context) string {
	if v := ctx.Value(TenantIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetEmployeeID extracts the employee id from context.
func GetEmployeeID(ctx context.Context) string {
	if v := ctx.Value(EmployeeIDKey); v != nil {
		return v.(string)
	}
	return ""
}
