package webhooks

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/obafemi/chopwell-backend/api/responses"
	paymentsvc "github.com/obafemi/chopwell-backend/internal/payments"
	pkgerrors "github.com/obafemi/chopwell-backend/pkg/errors"
	"github.com/obafemi/chopwell-backend/pkg/logger"
	"github.com/obafemi/chopwell-backend/pkg/monnify"
)

const signatureHeader = "monnify-signature"

// maxBodyBytes bounds webhook bodies; provider notifications are tiny.
const maxBodyBytes = 1 << 20

// Monnify authenticates a provider notification and hands it to the payment
// service. The webhook is advisory: a rejected or dropped delivery leaves no
// trace, and the poll path remains the authority for materialization.
func Monnify(svc paymentsvc.Service, signingSecret string, allowedIPs []string, logg *logger.Logger) http.HandlerFunc {
	allowlist := make(map[string]struct{}, len(allowedIPs))
	for _, ip := range allowedIPs {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowlist[ip] = struct{}{}
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if len(allowlist) > 0 {
			ip := clientIP(r)
			if _, ok := allowlist[ip]; !ok {
				logg.Warn(logg.WithField(ctx, "remote_ip", ip), "webhook from unlisted address rejected")
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "source address not allowed"))
				return
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if !monnify.VerifySignature(signingSecret, body, r.Header.Get(signatureHeader)) {
			logg.Warn(ctx, "webhook signature mismatch")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature"))
			return
		}

		var payload monnify.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}

		if err := svc.HandleWebhook(ctx, payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}

// clientIP prefers the first X-Forwarded-For hop, set by the load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
