package conversation

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/sismos-scu/sismobot/internal/database"
	"github.com/sismos-scu/sismobot/internal/gemini"
)

// Generator produces text for a prompt. Any error is treated as a generation failure.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error)
}

// Persistence stores what the flows collect. Failures are logged and never block a reply.
type Persistence interface {
	UpsertProfile(ctx context.Context, profile *database.Profile) error
	AppendQuery(ctx context.Context, record *database.QueryRecord) error
	AppendMedia(ctx context.Context, record *database.MediaRecord) error
}

func (d *Dispatcher) registrationFlow() *Flow {
	return &Flow{
		ID:      FlowRegistration,
		Trigger: TagRegister,
		Steps: []Step{
			{
				State:    StateName,
				Field:    FieldName,
				Prompt:   Reply{Text: promptName, Buttons: [][]Button{{buttonMenu}}},
				Validate: required(msgRequired),
			},
			{
				State:    StateSurname,
				Field:    FieldSurname,
				Prompt:   Reply{Text: promptSurname},
				Validate: required(msgRequired),
			},
			{
				State:    StateAge,
				Field:    FieldAge,
				Prompt:   Reply{Text: promptAge},
				Validate: validateAge,
			},
			{
				State:    StateSex,
				Field:    FieldSex,
				Prompt:   Reply{Text: promptSex, Keyboard: sexOptions},
				Validate: required(msgRequired),
			},
			{
				State:    StateAcademicLevel,
				Field:    FieldAcademicLevel,
				Prompt:   Reply{Text: promptAcademicLevel, Keyboard: academicOptions},
				Validate: required(msgRequired),
			},
			{
				State:    StateResidence,
				Field:    FieldResidence,
				Prompt:   Reply{Text: promptResidence, RemoveKeyboard: true},
				Validate: required(msgRequired),
			},
			{
				State:    StateEmail,
				Field:    FieldEmail,
				Prompt:   Reply{Text: promptEmail},
				Validate: validateEmail,
			},
			{
				State:    StateConsent,
				Field:    FieldReceiveInfo,
				Prompt:   Reply{Text: promptConsent, Keyboard: consentOptions},
				Validate: required(msgRequired),
			},
		},
		Complete: d.completeRegistration,
	}
}

func (d *Dispatcher) questionFlow() *Flow {
	return &Flow{
		ID:      FlowQuestion,
		Trigger: TagQuestion,
		Steps: []Step{{
			State:    StateQuestion,
			Field:    FieldQuestion,
			Prompt:   Reply{Text: promptQuestion, Buttons: [][]Button{{buttonMenu}}},
			Validate: required(msgQuestion),
		}},
		Complete: d.completeQuestion,
	}
}

func (d *Dispatcher) riskFlow() *Flow {
	return &Flow{
		ID:      FlowRisk,
		Trigger: TagRisk,
		Steps: []Step{{
			State:    StateLocation,
			Field:    FieldLocation,
			Prompt:   Reply{Text: promptLocation, Buttons: [][]Button{{buttonMenu}}},
			Validate: required(msgLocation),
		}},
		Complete: d.completeRisk,
	}
}

// completeRegistration saves the profile and replies with a summary, plus
// personalized advice when the user agreed to receive information.
func (d *Dispatcher) completeRegistration(ctx context.Context, userID int64, fields map[string]string) []Reply {
	log := d.log.With("flow", FlowRegistration, "user_id", userID)

	age, err := strconv.Atoi(fields[FieldAge])
	if err != nil {
		log.ErrorContext(ctx, "Registration finished with an unparsable age", "age", fields[FieldAge], "error", err)
	}

	profile := &database.Profile{
		UserID:        userID,
		Name:          fields[FieldName],
		Surname:       fields[FieldSurname],
		Age:           age,
		Sex:           fields[FieldSex],
		AcademicLevel: fields[FieldAcademicLevel],
		Residence:     fields[FieldResidence],
		ReceiveInfo:   fields[FieldReceiveInfo],
	}
	if email, ok := fields[FieldEmail]; ok {
		profile.Email = sql.NullString{String: email, Valid: true}
	}
	if err := d.store.UpsertProfile(ctx, profile); err != nil {
		log.ErrorContext(ctx, "Failed to save profile", "error", err)
	} else {
		log.InfoContext(ctx, "Profile saved")
	}

	summary := registrationSummary(fields)
	if IsAffirmative(fields[FieldReceiveInfo]) {
		advice, err := d.gen.Generate(ctx, gemini.AdvicePrompt(gemini.AdviceInput{
			Name:          fields[FieldName],
			Age:           fields[FieldAge],
			Sex:           fields[FieldSex],
			Residence:     fields[FieldResidence],
			AcademicLevel: fields[FieldAcademicLevel],
		}), gemini.AdviceTemperature, gemini.AdviceMaxTokens)
		if err != nil {
			log.WarnContext(ctx, "Advice generation failed, using fallback", "error", err)
			advice = adviceFallback
		}
		summary += adviceHeader + advice
	}

	return []Reply{
		{Text: summary, Markdown: true, RemoveKeyboard: true},
		{Text: d.msgs.FollowUp, Buttons: registrationFollowUp},
	}
}

// completeQuestion answers a free-form question. Failed generations are not recorded.
func (d *Dispatcher) completeQuestion(ctx context.Context, userID int64, fields map[string]string) []Reply {
	log := d.log.With("flow", FlowQuestion, "user_id", userID)
	question := fields[FieldQuestion]

	var replies []Reply
	answer, err := d.gen.Generate(ctx, gemini.QuestionPrompt(question), gemini.QuestionTemperature, gemini.QuestionMaxTokens)
	if err != nil {
		log.WarnContext(ctx, "Question generation failed", "error", err)
		replies = append(replies, Reply{Text: d.msgs.QueryError})
	} else {
		for _, chunk := range SplitMessage(answer, MaxMessageLength) {
			replies = append(replies, Reply{Text: chunk})
		}
		record := &database.QueryRecord{UserID: userID, Kind: database.QueryKindQuestion, Content: question, Response: answer}
		if err := d.store.AppendQuery(ctx, record); err != nil {
			log.ErrorContext(ctx, "Failed to save query", "error", err)
		}
	}

	return append(replies, Reply{Text: d.msgs.NextAction, Buttons: questionFollowUp})
}

// completeRisk evaluates a location. The static recommendations are always included.
func (d *Dispatcher) completeRisk(ctx context.Context, userID int64, fields map[string]string) []Reply {
	log := d.log.With("flow", FlowRisk, "user_id", userID)
	location := fields[FieldLocation]

	narrative, err := d.gen.Generate(ctx, gemini.RiskPrompt(location), gemini.RiskTemperature, gemini.RiskMaxTokens)
	if err != nil {
		log.WarnContext(ctx, "Risk generation failed", "error", err)
		narrative = d.msgs.RiskError
	} else {
		record := &database.QueryRecord{UserID: userID, Kind: database.QueryKindRisk, Content: location, Response: narrative}
		if err := d.store.AppendQuery(ctx, record); err != nil {
			log.ErrorContext(ctx, "Failed to save risk evaluation", "error", err)
		}
	}

	var replies []Reply
	for _, chunk := range SplitMessage(riskReport(location, narrative), MaxMessageLength) {
		replies = append(replies, Reply{Text: chunk, Markdown: true})
	}
	return append(replies, Reply{Text: d.msgs.FollowUp, Buttons: riskFollowUp})
}
