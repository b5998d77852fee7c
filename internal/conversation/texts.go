package conversation

import (
	"fmt"
	"strings"
)

var (
	buttonMenu     = Button{Label: "🏠 Menú principal", Tag: TagMenu}
	buttonOpenMenu = Button{Label: "Abrir Menú", Tag: TagMenu}

	mainMenuButtons = [][]Button{
		{{Label: "📝 Registrarse", Tag: TagRegister}},
		{{Label: "❓ Consultar sobre sismos", Tag: TagQuestion}},
		{{Label: "📍 Evaluar riesgo por ubicación", Tag: TagRisk}},
		{{Label: "🚨 Consejos básicos", Tag: TagTips}},
	}

	registrationFollowUp = [][]Button{
		{{Label: "❓ Hacer una consulta", Tag: TagQuestion}},
		{{Label: "📍 Evaluar mi riesgo", Tag: TagRisk}},
		{buttonMenu},
	}

	questionFollowUp = [][]Button{
		{{Label: "🔄 Nueva consulta", Tag: TagQuestion}},
		{buttonMenu},
	}

	riskFollowUp = [][]Button{
		{{Label: "📍 Evaluar otra ubicación", Tag: TagRisk}},
		{buttonMenu},
	}

	sexOptions = [][]string{{"Masculino", "Femenino", "Otro"}}

	academicOptions = [][]string{
		{"Primaria", "Secundaria"},
		{"Preuniversitario", "Universitario"},
		{"Técnico Medio", "Otro"},
	}

	consentOptions = [][]string{{"Sí", "No"}}
)

const (
	promptName          = "Por favor, ingresa tu nombre:"
	promptSurname       = "Gracias. Ahora ingresa tus apellidos:"
	promptAge           = "Por favor, ingresa tu edad:"
	promptSex           = "Selecciona tu sexo:"
	promptAcademicLevel = "Indica tu nivel académico más alto alcanzado:"
	promptResidence     = "Ingresa tu centro de residencia (municipio/localidad en Santiago de Cuba):"
	promptEmail         = "¿Tienes correo electrónico? Si es así, escríbelo. Si no, escribe 'no':"
	promptConsent       = "¿Deseas recibir información sobre orientaciones de la Defensa Civil antes, durante o después de un sismo en Santiago de Cuba?"
	promptQuestion      = "Escribe tu pregunta sobre sismos en Santiago de Cuba:"
	promptLocation      = "Por favor, envía tu ubicación (puedes escribirla o compartir tu ubicación):"

	notProvided = "No proporcionado"

	adviceHeader   = "🔍 **Recomendaciones personalizadas:**\n"
	adviceFallback = "Aquí tienes algunos consejos generales:\n- Prepara un kit de emergencia\n- Identifica zonas seguras en tu vivienda"

	riskRecommendations = "🔍 Recomendaciones:\n" +
		"- Verifica que tu vivienda cumpla con normas antisísmicas\n" +
		"- Conoce los puntos de reunión de tu comunidad"

	safetyTips = `🚨 **Consejos básicos ante sismos**:

🔷 **Antes**:
- Identifica zonas seguras en casa/trabajo
- Prepara mochila de emergencia (agua, comida, medicinas, linterna)
- Asegura muebles altos y objetos pesados

🔷 **Durante**:
- Mantén la calma
- Ubícate en el triángulo de vida (junto a muebles resistentes)
- Aléjate de ventanas y objetos que puedan caer
- Si estás en la calle, aléjate de edificios y postes

🔷 **Después**:
- Revisa daños estructurales antes de reingresar
- No uses elevadores
- Verifica fugas de gas o cables eléctricos
- Sigue indicaciones de Defensa Civil`
)

func registrationSummary(fields map[string]string) string {
	get := func(key string) string {
		if v, ok := fields[key]; ok && v != "" {
			return v
		}
		return notProvided
	}

	var b strings.Builder
	b.WriteString("📝 **Resumen de tus datos:**\n\n")
	fmt.Fprintf(&b, "👤 Nombre: %s\n", get(FieldName))
	fmt.Fprintf(&b, "📝 Apellidos: %s\n", get(FieldSurname))
	fmt.Fprintf(&b, "🎂 Edad: %s\n", get(FieldAge))
	fmt.Fprintf(&b, "🚻 Sexo: %s\n", get(FieldSex))
	fmt.Fprintf(&b, "🎓 Nivel académico: %s\n", get(FieldAcademicLevel))
	fmt.Fprintf(&b, "🏠 Residencia: %s\n", get(FieldResidence))
	fmt.Fprintf(&b, "📧 Email: %s\n", get(FieldEmail))
	fmt.Fprintf(&b, "ℹ️ Recibir info sismos: %s\n\n", get(FieldReceiveInfo))
	return b.String()
}

func riskReport(location, narrative string) string {
	return fmt.Sprintf("📌 **Evaluación para %s:**\n\n%s\n\n%s", location, narrative, riskRecommendations)
}
