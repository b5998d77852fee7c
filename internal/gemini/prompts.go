package gemini

import "fmt"

// Sampling parameters per use case.
const (
	AdviceTemperature   float32 = 0.5
	AdviceMaxTokens     int32   = 300
	QuestionTemperature float32 = 0.7
	QuestionMaxTokens   int32   = 500
	RiskTemperature     float32 = 0.3
	RiskMaxTokens       int32   = 800
)

// questionPromptFormat frames a free-form user question. Expects the question text.
const questionPromptFormat = "Eres un experto en sismología en Cuba. Responde de forma clara y concisa. Pregunta: %s"

// riskPromptFormat asks for a seismic risk narrative. Expects the location as written by the user.
const riskPromptFormat = "Evalúa el riesgo sísmico en Santiago de Cuba considerando: historia sísmica, tipo de construcciones y geología. Ubicación: %s"

const advicePromptHeader = "Genera recomendaciones para preparación ante sismos basadas en estos datos:"

// AdviceInput carries the profile values used for personalized recommendations.
type AdviceInput struct {
	Name          string
	Age           string
	Sex           string
	Residence     string
	AcademicLevel string
}

// QuestionPrompt builds the prompt for a question-answering request.
func QuestionPrompt(question string) string {
	return fmt.Sprintf(questionPromptFormat, question)
}

// RiskPrompt builds the prompt for a location risk evaluation.
func RiskPrompt(location string) string {
	return fmt.Sprintf(riskPromptFormat, location)
}

// AdvicePrompt builds the prompt for post-registration recommendations.
func AdvicePrompt(in AdviceInput) string {
	return fmt.Sprintf("%s\n- Nombre: %s\n- Edad: %s\n- Sexo: %s\n- Residencia: %s\n- Nivel académico: %s",
		advicePromptHeader, in.Name, in.Age, in.Sex, in.Residence, in.AcademicLevel)
}
