package conversation

import (
	"context"
	"fmt"
)

// FlowID identifies a multi-step dialogue. The empty ID is the idle state.
type FlowID string

const (
	FlowRegistration FlowID = "registration"
	FlowQuestion     FlowID = "qa"
	FlowRisk         FlowID = "risk"
)

// State is a step name owned by exactly one flow. Only the typed per-flow
// constants below implement it.
type State interface {
	Flow() FlowID
	String() string
}

// RegistrationState is a step of the registration flow.
type RegistrationState string

const (
	StateName          RegistrationState = "name"
	StateSurname       RegistrationState = "surname"
	StateAge           RegistrationState = "age"
	StateSex           RegistrationState = "sex"
	StateAcademicLevel RegistrationState = "academic_level"
	StateResidence     RegistrationState = "residence"
	StateEmail         RegistrationState = "email"
	StateConsent       RegistrationState = "consent"
)

// QAState is a step of the question-answering flow.
type QAState string

const StateQuestion QAState = "question"

// RiskState is a step of the risk-evaluation flow.
type RiskState string

const StateLocation RiskState = "location"

func (RegistrationState) Flow() FlowID { return FlowRegistration }
func (s RegistrationState) String() string { return string(s) }
func (QAState) Flow() FlowID { return FlowQuestion }
func (s QAState) String() string { return string(s) }
func (RiskState) Flow() FlowID { return FlowRisk }
func (s RiskState) String() string { return string(s) }

// Field keys collected by the registration flow.
const (
	FieldName          = "nombre"
	FieldSurname       = "apellidos"
	FieldAge           = "edad"
	FieldSex           = "sexo"
	FieldAcademicLevel = "nivel_academico"
	FieldResidence     = "residencia"
	FieldEmail         = "email"
	FieldReceiveInfo   = "recibir_info"

	FieldQuestion = "pregunta"
	FieldLocation = "ubicacion"
)

// Step is one prompt of a flow. Field is where the accepted input is stored.
type Step struct {
	State    State
	Field    string
	Prompt   Reply
	Validate Validator
}

// TerminalAction completes a flow with the collected fields and returns the
// completion replies. It runs once, after the last step accepts its input.
type TerminalAction func(ctx context.Context, userID int64, fields map[string]string) []Reply

// Flow is an ordered list of steps started by a menu button.
type Flow struct {
	ID       FlowID
	Trigger  string
	Steps    []Step
	Complete TerminalAction
}

// stepIndex returns the position of state in the flow, or -1.
func (f *Flow) stepIndex(state string) int {
	for i, s := range f.Steps {
		if s.State.String() == state {
			return i
		}
	}
	return -1
}

// States lists the flow's states in order.
func (f *Flow) States() []string {
	states := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		states[i] = s.State.String()
	}
	return states
}

func (f *Flow) validate() error {
	if f.ID == "" || f.Trigger == "" {
		return fmt.Errorf("flow needs an id and a trigger")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %s has no steps", f.ID)
	}
	if f.Complete == nil {
		return fmt.Errorf("flow %s has no terminal action", f.ID)
	}
	seen := make(map[string]bool, len(f.Steps))
	for _, s := range f.Steps {
		if s.State == nil || s.State.String() == "" || s.Field == "" || s.Validate == nil {
			return fmt.Errorf("flow %s has an incomplete step", f.ID)
		}
		name := s.State.String()
		if owner := s.State.Flow(); owner != f.ID {
			return fmt.Errorf("flow %s uses state %q of flow %s", f.ID, name, owner)
		}
		if seen[name] {
			return fmt.Errorf("flow %s repeats state %q", f.ID, name)
		}
		seen[name] = true
	}
	return nil
}
