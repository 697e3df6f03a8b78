// Package resolution turns a completed application record into a resolved
// technician identity. The backend is the only identity authority: we never
// mint or guess an ID locally, we only reconcile what the backend reports.
package resolution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"provider-onboarding/internal/backend"
	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/common/metrics"
	"provider-onboarding/internal/docrules"
	"provider-onboarding/internal/models"
)

// Backend is the slice of the REST client the resolver depends on.
type Backend interface {
	Register(ctx context.Context, payload models.RegisterPayload) (*backend.RegisterResponse, error)
	Login(ctx context.Context, phone string) (*models.Technician, error)
	UploadDocument(ctx context.Context, req backend.UploadRequest) (string, error)
	UpdateLastDocument(ctx context.Context, technicianID int64, documentURL string)
}

type Resolver struct {
	backend Backend
	rules   docrules.Table
	logger  logger.Logger
	tracer  trace.Tracer
}

func NewResolver(b Backend, rules docrules.Table, log logger.Logger) *Resolver {
	return &Resolver{
		backend: b,
		rules:   rules,
		logger:  log.WithFields(map[string]interface{}{"component": "resolution"}),
		tracer:  otel.Tracer("provider-onboarding/resolution"),
	}
}

// Resolve registers the record and reconciles the backend's answer into a
// technician identity. A PHONE_EXISTS rejection falls back to login for the
// same phone, so resubmitting an already-registered application converges
// on the same identity instead of failing.
func (r *Resolver) Resolve(ctx context.Context, record *models.ApplicationRecord) (*models.Technician, error) {
	ctx, span := r.tracer.Start(ctx, "resolution.Resolve",
		trace.WithAttributes(attribute.String("category", string(record.Category))))
	defer span.End()

	attemptID := uuid.New().String()
	log := r.logger.WithFields(map[string]interface{}{"attemptId": attemptID})

	resp, err := r.backend.Register(ctx, record.ToRegisterPayload())
	if err != nil {
		metrics.ResolutionOutcomes.WithLabelValues("transport_error").Inc()
		return nil, err
	}

	switch {
	case resp.Success && resp.Tech != nil:
		metrics.ResolutionOutcomes.WithLabelValues("registered").Inc()
		log.Info("registered new technician", map[string]interface{}{
			"technicianId": resp.Tech.ID,
		})
		return resp.Tech, nil

	case resp.Success:
		// Success without an identity payload is a protocol violation we
		// refuse to paper over.
		metrics.ResolutionOutcomes.WithLabelValues("unresolved").Inc()
		return nil, errors.NewIdentityResolutionError("registration succeeded but no technician returned")

	case resp.Error == backend.ReasonPhoneExists:
		return r.resolveExisting(ctx, log, record.Phone)

	default:
		metrics.ResolutionOutcomes.WithLabelValues("rejected").Inc()
		reason := resp.Error
		if reason == "" {
			reason = "Registration failed"
		}
		return nil, errors.NewRegistrationError(reason)
	}
}

// resolveExisting handles the PHONE_EXISTS fallback: the account is already
// registered, so the identity must come from login.
func (r *Resolver) resolveExisting(ctx context.Context, log logger.Logger, phone string) (*models.Technician, error) {
	tech, err := r.backend.Login(ctx, phone)
	if err != nil {
		metrics.ResolutionOutcomes.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	if tech == nil {
		// The backend claims the phone exists but will not say who it is.
		metrics.ResolutionOutcomes.WithLabelValues("unresolved").Inc()
		return nil, errors.NewIdentityResolutionError("phone already registered, login returned no identity")
	}

	metrics.ResolutionOutcomes.WithLabelValues("logged_in").Inc()
	log.Info("reconciled existing technician", map[string]interface{}{
		"technicianId": tech.ID,
	})
	return tech, nil
}

// UploadAll transfers the record's documents one at a time, in rule-table
// order, stopping at the first failure. Documents already uploaded stay
// uploaded; the caller re-runs the whole stage to retry. After a fully
// successful pass the last file URL is posted back as a best-effort
// notification that must never fail the stage.
func (r *Resolver) UploadAll(ctx context.Context, tech *models.Technician, record *models.ApplicationRecord) error {
	ctx, span := r.tracer.Start(ctx, "resolution.UploadAll",
		trace.WithAttributes(attribute.Int64("technician.id", tech.ID)))
	defer span.End()

	batchID := uuid.New().String()
	log := r.logger.WithFields(map[string]interface{}{
		"batchId":      batchID,
		"technicianId": tech.ID,
	})

	lastURL := ""
	for _, rule := range r.rules.ForCategory(record.Category) {
		sub, ok := record.Documents[rule.Key]
		if !ok || sub.File == nil {
			// optional document not provided
			continue
		}

		started := time.Now()
		fileURL, err := r.backend.UploadDocument(ctx, backend.UploadRequest{
			File:         *sub.File,
			TechnicianID: tech.ID,
			DocType:      rule.Key,
			DocNumber:    sub.Number,
		})
		metrics.DocumentUploadDuration.WithLabelValues(rule.Key).Observe(time.Since(started).Seconds())

		if err != nil {
			metrics.DocumentUploads.WithLabelValues(rule.Key, "failure").Inc()
			log.Error("document upload failed", map[string]interface{}{
				"docType": rule.Key,
				"error":   err.Error(),
			})
			return errors.NewUploadError(rule.Label, err)
		}

		metrics.DocumentUploads.WithLabelValues(rule.Key, "success").Inc()
		log.Info("document uploaded", map[string]interface{}{
			"docType": rule.Key,
			"fileUrl": fileURL,
		})
		lastURL = fileURL
	}

	if lastURL != "" {
		r.backend.UpdateLastDocument(ctx, tech.ID, lastURL)
	}
	return nil
}
