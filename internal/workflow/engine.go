// Package workflow drives the staged onboarding flow. The engine owns the
// stage cursor and the accumulating application record; every mutation goes
// through a Submit method that validates, talks to collaborators, and only
// then advances the stage.
package workflow

import (
	"context"
	"sync"

	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/common/metrics"
	"provider-onboarding/internal/docrules"
	"provider-onboarding/internal/models"
	"provider-onboarding/internal/resolution"
	"provider-onboarding/internal/validation"
)

// Stage identifies one step of the onboarding flow.
type Stage string

const (
	StageLanguage        Stage = "LANGUAGE"
	StagePhone           Stage = "PHONE"
	StageOTP             Stage = "OTP"
	StageProfile         Stage = "PROFILE"
	StageCategoryDetails Stage = "CATEGORY_DETAILS"
	StageDocuments       Stage = "DOCUMENTS"
	StageResolved        Stage = "RESOLVED"
)

// Profile sub-steps, in submission order.
const (
	StepNameEmail = 1
	StepCategory  = 2
	StepArea      = 3
)

// Verifier is the slice of the OTP service the engine needs.
type Verifier interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, code string) error
}

// IdentityResolver registers or reconciles the application into an identity
// and transfers its documents.
type IdentityResolver interface {
	Resolve(ctx context.Context, record *models.ApplicationRecord) (*models.Technician, error)
	UploadAll(ctx context.Context, tech *models.Technician, record *models.ApplicationRecord) error
}

// AccountLookup checks whether a verified phone already has an identity, so
// returning users skip the profile stages entirely.
type AccountLookup interface {
	Login(ctx context.Context, phone string) (*models.Technician, error)
}

// DeliveryFunc hands an issued verification code to whatever delivers it to
// the user. May be nil.
type DeliveryFunc func(ctx context.Context, phone, code string)

var _ IdentityResolver = (*resolution.Resolver)(nil)

type Engine struct {
	otp      Verifier
	resolver IdentityResolver
	accounts AccountLookup
	rules    docrules.Table
	deliver  DeliveryFunc
	logger   logger.Logger

	mu          sync.Mutex
	inFlight    bool
	stage       Stage
	profileStep int
	record      models.ApplicationRecord
	session     *models.Session
}

func NewEngine(verifier Verifier, resolver IdentityResolver, accounts AccountLookup, rules docrules.Table, deliver DeliveryFunc, log logger.Logger) *Engine {
	return &Engine{
		otp:      verifier,
		resolver: resolver,
		accounts: accounts,
		rules:    rules,
		deliver:  deliver,
		logger:   log.WithFields(map[string]interface{}{"component": "workflow"}),
		stage:    StageLanguage,
	}
}

// Stage returns the current stage cursor.
func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// ProfileStep returns the current profile sub-step (1..3); zero outside the
// profile stage.
func (e *Engine) ProfileStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stage != StageProfile {
		return 0
	}
	return e.profileStep
}

// Record returns a copy of the application record accumulated so far, so
// re-entered stages can re-present retained values.
func (e *Engine) Record() models.ApplicationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record
}

// Session returns the resolved session once the flow has completed.
func (e *Engine) Session() (models.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return models.Session{}, false
	}
	return *e.session, true
}

// SubmitLanguage records the interface language and advances to the phone
// stage.
func (e *Engine) SubmitLanguage(ctx context.Context, language string) error {
	release, err := e.begin(StageLanguage, 0)
	if err != nil {
		return err
	}
	defer release()

	lang, parseErr := models.ParseLanguage(language)
	if parseErr != nil {
		return e.fail(StageLanguage, errors.NewValidationError("language", "Select a language"))
	}

	e.apply(func() {
		e.record.Language = lang
		e.stage = StagePhone
	})
	return e.ok(StageLanguage)
}

// SubmitPhone validates the phone, issues a verification code, and advances
// to the OTP stage.
func (e *Engine) SubmitPhone(ctx context.Context, phone string) error {
	release, err := e.begin(StagePhone, 0)
	if err != nil {
		return err
	}
	defer release()

	if verr := validation.Phone(phone); verr != nil {
		return e.fail(StagePhone, verr)
	}

	code, issueErr := e.otp.Issue(ctx, phone)
	if issueErr != nil {
		return e.fail(StagePhone, issueErr)
	}
	if e.deliver != nil {
		e.deliver(ctx, phone, code)
	}

	e.apply(func() {
		e.record.Phone = phone
		e.stage = StageOTP
	})
	return e.ok(StagePhone)
}

// SubmitOTP verifies the code. A verified phone that already has an account
// short-circuits straight to a resolved session; otherwise the profile
// stages begin.
func (e *Engine) SubmitOTP(ctx context.Context, code string) error {
	release, err := e.begin(StageOTP, 0)
	if err != nil {
		return err
	}
	defer release()

	phone := e.snapshotRecord().Phone
	if verifyErr := e.otp.Verify(ctx, phone, code); verifyErr != nil {
		return e.fail(StageOTP, verifyErr)
	}

	tech, loginErr := e.accounts.Login(ctx, phone)
	if loginErr != nil {
		// Lookup failures are not fatal: the flow continues as a new
		// registration and the backend reconciles at resolve time.
		e.logger.Warn("account lookup failed, continuing as new registration", map[string]interface{}{
			"error": loginErr.Error(),
		})
		tech = nil
	}

	e.apply(func() {
		if tech != nil {
			session := models.NewSession(*tech)
			e.session = &session
			e.stage = StageResolved
			return
		}
		e.stage = StageProfile
		e.profileStep = StepNameEmail
	})

	if tech != nil {
		metrics.ResolutionOutcomes.WithLabelValues("logged_in").Inc()
		e.logger.Info("existing account resolved at verification", map[string]interface{}{
			"technicianId": tech.ID,
		})
	}
	return e.ok(StageOTP)
}

// SubmitNameEmail records the name and email (profile sub-step 1).
func (e *Engine) SubmitNameEmail(ctx context.Context, fullName, email string) error {
	release, err := e.begin(StageProfile, StepNameEmail)
	if err != nil {
		return err
	}
	defer release()

	if verr := validation.FullName(fullName); verr != nil {
		return e.fail(StageProfile, verr)
	}
	if verr := validation.Email(email); verr != nil {
		return e.fail(StageProfile, verr)
	}

	e.apply(func() {
		e.record.FullName = fullName
		e.record.Email = email
		e.profileStep = StepCategory
	})
	return e.ok(StageProfile)
}

// SubmitCategory records the service category (profile sub-step 2). An
// empty selection defaults to carwash. Changing the category on a
// back-and-forth pass voids details and documents entered for the old one.
func (e *Engine) SubmitCategory(ctx context.Context, category string) error {
	release, err := e.begin(StageProfile, StepCategory)
	if err != nil {
		return err
	}
	defer release()

	if category == "" {
		category = string(models.CategoryCarwash)
	}
	cat, parseErr := models.ParseCategory(category)
	if parseErr != nil {
		return e.fail(StageProfile, errors.NewValidationError("category", "Select a service category"))
	}

	e.apply(func() {
		if e.record.Category != "" && e.record.Category != cat {
			e.record.Details = nil
			e.record.Documents = nil
		}
		e.record.Category = cat
		e.profileStep = StepArea
	})
	return e.ok(StageProfile)
}

// SubmitArea records the service area (profile sub-step 3) and moves on to
// the category-specific details stage.
func (e *Engine) SubmitArea(ctx context.Context, area string) error {
	release, err := e.begin(StageProfile, StepArea)
	if err != nil {
		return err
	}
	defer release()

	if verr := validation.Area(area); verr != nil {
		return e.fail(StageProfile, verr)
	}

	e.apply(func() {
		e.record.Area = area
		e.stage = StageCategoryDetails
		e.profileStep = 0
	})
	return e.ok(StageProfile)
}

// SubmitCategoryDetails records the category-specific fields.
func (e *Engine) SubmitCategoryDetails(ctx context.Context, details models.CategoryDetails) error {
	release, err := e.begin(StageCategoryDetails, 0)
	if err != nil {
		return err
	}
	defer release()

	if details == nil || details.Category() != e.snapshotRecord().Category {
		return e.fail(StageCategoryDetails, errors.NewValidationError("details", "Details do not match the selected category"))
	}
	if verr := validation.CategoryDetails(details); verr != nil {
		return e.fail(StageCategoryDetails, verr)
	}

	e.apply(func() {
		e.record.Details = details
		e.stage = StageDocuments
	})
	return e.ok(StageCategoryDetails)
}

// SubmitDocuments validates the document set, resolves the identity, and
// transfers the documents. This is the commit point of the whole flow: the
// stage advances to RESOLVED only when every step succeeded.
func (e *Engine) SubmitDocuments(ctx context.Context, docs map[string]models.DocumentSubmission) error {
	release, err := e.begin(StageDocuments, 0)
	if err != nil {
		return err
	}
	defer release()

	record := e.snapshotRecord()
	record.Documents = docs

	if verr := validation.Documents(e.rules.ForCategory(record.Category), docs); verr != nil {
		return e.fail(StageDocuments, verr)
	}

	tech, resolveErr := e.resolver.Resolve(ctx, &record)
	if resolveErr != nil {
		return e.fail(StageDocuments, resolveErr)
	}

	if uploadErr := e.resolver.UploadAll(ctx, tech, &record); uploadErr != nil {
		return e.fail(StageDocuments, uploadErr)
	}

	e.apply(func() {
		e.record.Documents = docs
		session := models.NewSession(*tech)
		e.session = &session
		e.stage = StageResolved
	})

	e.logger.Info("onboarding resolved", map[string]interface{}{
		"technicianId": tech.ID,
		"category":     string(record.Category),
	})
	return e.ok(StageDocuments)
}

// Back steps the cursor to the previous profile sub-step or stage, back to
// the start of the profile. All values entered so far are retained and
// re-presented on forward re-entry. Identity stages (language through OTP)
// and RESOLVED cannot be re-entered.
func (e *Engine) Back() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return false
	}

	switch e.stage {
	case StageProfile:
		if e.profileStep <= StepNameEmail {
			return false
		}
		e.profileStep--
	case StageCategoryDetails:
		e.stage = StageProfile
		e.profileStep = StepArea
	case StageDocuments:
		e.stage = StageCategoryDetails
	default:
		return false
	}
	return true
}

// ==========================
// Internal helpers
// ==========================

// begin takes the in-flight slot after checking the stage cursor. The
// returned release must be deferred. Submissions arriving while another one
// holds the slot are rejected, not queued.
func (e *Engine) begin(stage Stage, step int) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stage != stage || (step != 0 && e.profileStep != step) {
		metrics.StageSubmissions.WithLabelValues(string(stage), "rejected").Inc()
		return nil, errors.NewStageOrderError(e.describeStage(), string(stage))
	}
	if e.inFlight {
		metrics.StageSubmissions.WithLabelValues(string(stage), "rejected").Inc()
		return nil, errors.NewSubmissionInFlightError()
	}

	e.inFlight = true
	return func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}, nil
}

// apply runs a state mutation under the lock.
func (e *Engine) apply(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

func (e *Engine) ok(stage Stage) error {
	metrics.StageSubmissions.WithLabelValues(string(stage), "success").Inc()
	return nil
}

func (e *Engine) fail(stage Stage, err error) error {
	metrics.StageSubmissions.WithLabelValues(string(stage), "failure").Inc()
	return err
}

func (e *Engine) describeStage() string {
	if e.stage == StageProfile {
		switch e.profileStep {
		case StepNameEmail:
			return "PROFILE/name-email"
		case StepCategory:
			return "PROFILE/category"
		case StepArea:
			return "PROFILE/area"
		}
	}
	return string(e.stage)
}

func (e *Engine) snapshotRecord() models.ApplicationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record
}
