package services

import (
	"strconv"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

var progressLabels = []string{"Personal Info", "Credit Details", "Card Selection", "Review & Submit"}

// BuildView projects a session onto what the client renders for its
// current step.
func BuildView(s *models.Session) *models.WizardView {
	step := s.Wizard.Step
	v := &models.WizardView{
		SessionID: s.ID,
		Step:      step,
		CanGoBack: step > models.StepLogin && step < models.StepStatus,
		Progress:  buildProgress(step),
		Record:    s.Record.Clone(),
		EmailOTP:  s.Wizard.EmailOTP.Status,
		AddonForm: s.Wizard.AddonForm,
	}
	if step == models.StepLogin {
		v.Captcha = s.Captcha
	}
	if step == models.StepReview || step == models.StepStatus {
		v.Summary = buildSummary(&s.Record, step == models.StepStatus)
	}
	if step == models.StepStatus {
		v.Reference = s.Wizard.Reference
		if s.Wizard.ClearAt != nil {
			t := *s.Wizard.ClearAt
			v.ClearsAt = &t
		}
	}
	return v
}

// buildProgress covers the four form steps only.
func buildProgress(step models.Step) *models.Progress {
	if step < models.StepPersonalInfo || step > models.StepReview {
		return nil
	}
	current := int(step - models.StepPersonalInfo + 1)
	p := &models.Progress{
		Current: current,
		Percent: (current - 1) * 100 / (len(progressLabels) - 1),
	}
	for i, label := range progressLabels {
		n := i + 1
		state := models.ProgressPending
		switch {
		case n < current:
			state = models.ProgressCompleted
		case n == current:
			state = models.ProgressActive
		}
		p.Steps = append(p.Steps, models.ProgressStep{Number: n, Label: label, State: state})
	}
	return p
}

func buildSummary(rec *models.ApplicationRecord, withDelivery bool) *models.Summary {
	sum := &models.Summary{
		CardName:    models.CardInfoFor(rec.SelectedCard).Name,
		FullName:    rec.FullName,
		DateOfBirth: utils.FormatDOB(rec.DateOfBirth),
		PAN:         rec.PAN,
		Email:       rec.Email,
		Mobile:      utils.FormatMobile(rec.Mobile),
		CreditLimit: utils.FormatINR(rec.CreditLimit),
		Addons:      "None",
	}
	if addons := rec.ActiveAddons(); addons != nil {
		sum.Addons = strconv.Itoa(len(addons))
	}
	if withDelivery {
		if opt, ok := models.DeliveryOptionFor(rec.CardType); ok {
			sum.Delivery = opt.Title
			sum.DeliveryWindow = opt.Window
		}
		sum.ProcessingTime = models.ProcessingTime
	}
	return sum
}
