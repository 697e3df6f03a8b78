// cmd/onboarding-agent/wizard.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/docrules"
	"provider-onboarding/internal/leads"
	"provider-onboarding/internal/models"
	"provider-onboarding/internal/workflow"
)

// wizard is the terminal rendition of the onboarding journey: it walks the
// engine's stages, re-prompting the same stage on every validation failure,
// and supports "back" between profile steps.
type wizard struct {
	engine *workflow.Engine
	rules  docrules.Table
	in     *bufio.Scanner
	out    io.Writer
}

func newWizard(engine *workflow.Engine, rules docrules.Table, in io.Reader, out io.Writer) *wizard {
	return &wizard{
		engine: engine,
		rules:  rules,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

func (w *wizard) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var err error
		switch w.engine.Stage() {
		case workflow.StageLanguage:
			err = w.engine.SubmitLanguage(ctx, w.prompt("Language (en/hi)"))
		case workflow.StagePhone:
			err = w.engine.SubmitPhone(ctx, w.prompt("Phone number (10 digits)"))
		case workflow.StageOTP:
			err = w.engine.SubmitOTP(ctx, w.prompt("Verification code"))
		case workflow.StageProfile:
			err = w.profileStep(ctx)
		case workflow.StageCategoryDetails:
			err = w.categoryDetails(ctx)
		case workflow.StageDocuments:
			err = w.documents(ctx)
		case workflow.StageResolved:
			fmt.Fprintln(w.out, "You are all set.")
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w.out, "  ! %s\n", userMessage(err))
		}
	}
}

func (w *wizard) profileStep(ctx context.Context) error {
	record := w.engine.Record()

	switch w.engine.ProfileStep() {
	case workflow.StepNameEmail:
		name := w.promptDefault("Full name", record.FullName)
		email := w.promptDefault("Email", record.Email)
		return w.engine.SubmitNameEmail(ctx, name, email)
	case workflow.StepCategory:
		cat := w.promptDefault("Category (carwash/pickdrop/driver)", string(record.Category))
		if w.maybeBack(cat) {
			return nil
		}
		return w.engine.SubmitCategory(ctx, cat)
	case workflow.StepArea:
		area := w.promptDefault("Area / city", record.Area)
		if w.maybeBack(area) {
			return nil
		}
		return w.engine.SubmitArea(ctx, area)
	}
	return nil
}

func (w *wizard) categoryDetails(ctx context.Context) error {
	record := w.engine.Record()

	var details models.CategoryDetails
	switch record.Category {
	case models.CategoryCarwash:
		expertise := w.prompt("Carwash expertise")
		if w.maybeBack(expertise) {
			return nil
		}
		details = models.CarwashDetails{Expertise: expertise}
	case models.CategoryPickDrop:
		v := w.prompt("Vehicle (bike/scooter/car, empty for bike)")
		if w.maybeBack(v) {
			return nil
		}
		vehicle, err := models.ParseVehicle(v)
		if v != "" && err != nil {
			return apperrors.NewValidationError("vehicle", "Select bike, scooter, or car")
		}
		details = models.PickDropDetails{Vehicle: vehicle}
	case models.CategoryDriver:
		exp := w.prompt("Driving experience (years)")
		if w.maybeBack(exp) {
			return nil
		}
		details = models.DriverDetails{ExperienceYears: exp}
	}

	return w.engine.SubmitCategoryDetails(ctx, details)
}

func (w *wizard) documents(ctx context.Context) error {
	record := w.engine.Record()
	docs := make(map[string]models.DocumentSubmission)

	for _, rule := range w.rules.ForCategory(record.Category) {
		path := w.prompt(fmt.Sprintf("%s — image file path%s", rule.Label, optionalHint(rule)))
		if w.maybeBack(path) {
			return nil
		}
		if path == "" && !rule.Required {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return apperrors.NewValidationError(rule.Key, fmt.Sprintf("Cannot read %s", path))
		}

		number := w.prompt(rule.InputPlaceholder)
		docs[rule.Key] = models.DocumentSubmission{
			File: &models.FileRef{
				Name:        rule.Key + ".jpg",
				ContentType: "image/jpeg",
				Data:        data,
			},
			Number: number,
		}
	}

	fmt.Fprintln(w.out, "Submitting application...")
	return w.engine.SubmitDocuments(ctx, docs)
}

// tailLeads prints the pending-orders snapshot and lets the user accept an
// order by id, or refresh on demand.
func (w *wizard) tailLeads(ctx context.Context, poller *leads.Poller) error {
	fmt.Fprintln(w.out, "Pending leads (enter an order id to accept, \"r\" to refresh, \"q\" to quit):")
	for {
		if ctx.Err() != nil {
			return nil
		}

		for _, order := range poller.Snapshot() {
			fmt.Fprintf(w.out, "  #%d  ₹%.0f  %s  %s\n", order.ID, order.Price, order.Distance, order.Duration)
		}

		input := w.prompt("> ")
		switch input {
		case "q":
			return nil
		case "r", "":
			poller.Refresh(ctx)
		default:
			orderID, err := strconv.ParseInt(input, 10, 64)
			if err != nil {
				fmt.Fprintln(w.out, "  ! enter an order id")
				continue
			}
			if err := poller.Accept(ctx, orderID); err != nil {
				fmt.Fprintf(w.out, "  ! %s\n", userMessage(err))
				continue
			}
			fmt.Fprintf(w.out, "  order #%d accepted\n", orderID)
		}
	}
}

// ==========================
// Prompt helpers
// ==========================

func (w *wizard) prompt(label string) string {
	fmt.Fprintf(w.out, "%s: ", label)
	if !w.in.Scan() {
		return ""
	}
	return strings.TrimSpace(w.in.Text())
}

// promptDefault re-presents a retained value; empty input keeps it.
func (w *wizard) promptDefault(label, current string) string {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	input := w.prompt(label)
	if input == "" {
		return current
	}
	return input
}

func (w *wizard) maybeBack(input string) bool {
	if input != "back" {
		return false
	}
	if !w.engine.Back() {
		fmt.Fprintln(w.out, "  ! cannot go back from here")
	}
	return true
}

func optionalHint(rule docrules.Rule) string {
	if rule.Required {
		return ""
	}
	return " (empty to skip)"
}

// userMessage strips the error down to what the user should see.
func userMessage(err error) string {
	std := apperrors.AsStandard(err)
	if std.Message != "" {
		return std.Message
	}
	return err.Error()
}
