package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDBPath             = "sismos_bot.db"
	DefaultDBOperationTimeout = 15 * time.Second

	DefaultGeminiModel             = "gemini-2.0-flash"
	DefaultGeminiTimeout           = 60 * time.Second
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 2

	DefaultSessionBackend = "memory"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultRedisKeyPrefix = "sismobot:session:"

	// Cron expressions with a leading seconds field.
	DefaultMaintenanceCron  = "0 0 4 * * *"
	DefaultSessionSweepCron = "0 */15 * * * *"
)

// DefaultMessages are the Spanish texts shown to users of the Santiago de Cuba deployment.
var DefaultMessages = MessagesConfig{
	Welcome: "¡Bienvenido al Sistema Inteligente de Orientación sobre Sismos de Santiago de Cuba!\n\n" +
		"Selecciona una opción:",
	UseMenuHint:   "ℹ️ Usa /start para acceder al menú de opciones.",
	Cancelled:     "Operación cancelada.",
	PhotoReceived: "✅ Imagen recibida. ¿En qué puedo ayudarte? Usa /start para opciones.",
	VoiceReceived: "✅ Audio recibido. Actualmente solo procesamos texto. Escribe tu consulta.",
	StrayInFlow:   "✍️ Responde con un mensaje de texto para continuar, o usa /menu para salir.",
	QueryError:    "⚠️ Lo siento, hubo un error procesando tu consulta. Intenta nuevamente.",
	RiskError:     "Lo siento, hubo un error al evaluar el riesgo.",
	FollowUp:      "¿Qué más te gustaría hacer?",
	NextAction:    "¿Qué deseas hacer ahora?",
	Unavailable:   "⚠️ No pudimos recuperar tu conversación. Intenta de nuevo en unos segundos.",

	CmdStartDescription:  "Mostrar el menú principal",
	CmdMenuDescription:   "Volver al menú principal",
	CmdCancelDescription: "Cancelar la operación en curso",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", DefaultGeminiModel)
	v.SetDefault("gemini.system_instruction", "")
	v.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelaySeconds)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.operation_timeout", DefaultDBOperationTimeout)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("session.backend", DefaultSessionBackend)
	v.SetDefault("session.ttl", DefaultSessionTTL)
	v.SetDefault("session.redis.addr", "")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultMaintenanceCron)
	v.SetDefault("scheduler.tasks.session_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.session_sweep.schedule", DefaultSessionSweepCron)

	m := DefaultMessages
	v.SetDefault("messages.welcome", m.Welcome)
	v.SetDefault("messages.use_menu_hint", m.UseMenuHint)
	v.SetDefault("messages.cancelled", m.Cancelled)
	v.SetDefault("messages.photo_received", m.PhotoReceived)
	v.SetDefault("messages.voice_received", m.VoiceReceived)
	v.SetDefault("messages.stray_in_flow", m.StrayInFlow)
	v.SetDefault("messages.query_error", m.QueryError)
	v.SetDefault("messages.risk_error", m.RiskError)
	v.SetDefault("messages.follow_up", m.FollowUp)
	v.SetDefault("messages.next_action", m.NextAction)
	v.SetDefault("messages.unavailable", m.Unavailable)
	v.SetDefault("messages.cmd_start_description", m.CmdStartDescription)
	v.SetDefault("messages.cmd_menu_description", m.CmdMenuDescription)
	v.SetDefault("messages.cmd_cancel_description", m.CmdCancelDescription)
}
