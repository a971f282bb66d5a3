package catalog

// Default returns the built-in Spanish catalog for the mental wellbeing
// triage flow.
func Default() *Catalog {
	return &Catalog{
		Questions: []Question{
			{ID: "name", Text: "¡Hola! Para nosotros eres muy importante, por lo tanto nos gustaría saber un poco más de ti. Para comenzar, ¿cuál es tu nombre completo?", Required: true},
			{ID: "age", Text: "¿Cuál es tu edad?", Required: true},
			{ID: "main_concern", Text: "¿Cuál es el motivo principal de tu preocupación?", Required: true},
			{ID: "anxiety", Text: "¿Te sientes nervioso, tenso o ansioso con frecuencia?", Required: true},
			{ID: "sadness", Text: "¿Te sientes triste o deprimido? ¿Me puedes comentar un poco más del contexto?", Required: true},
			{ID: "loss_of_interest", Text: "¿Has perdido interés en actividades que antes disfrutabas? ¿Qué actividades te interesaban antes y qué sientes ahora cuando las haces?", Required: true},
			{ID: "hallucinations_meds", Text: "¿Tienes alucinaciones o estás en medicamentos psiquiátricos?", Required: true},
			{ID: "self_harm_thoughts", Text: "¿Has tenido pensamientos sobre hacerte daño o acabar con tu vida?", Required: true},
			{ID: "desired_outcome", Text: "¿Qué te gustaría que pasara ahora mismo?", Required: true},
		},
		ConsentAccept: []string{
			"sí, acepto", "si, acepto", "si acepto", "sí acepto", "acepto", "si", "sí", "yes",
		},
		ConsentDecline: []string{
			"no, gracias", "no gracias", "no", "decline",
		},
		FallbackAccept: []string{
			"continuar", "continúa", "continua", "continue", "si", "sí",
		},
		FallbackDecline: []string{
			"no", "cancelar", "salir",
		},
		Messages: Messages{
			Greeting:        "¡Hola! 👋 Bienvenido/a a nuestro servicio de bienestar. Estamos aquí para apoyarte.",
			Consent:         "Este chat ofrece orientación en bienestar personal mediante preguntas y sugerencias. Tus datos se usarán solo para este servicio.\n\n⚠ Importante: es solo apoyo orientativo, no reemplaza atención psicológica profesional.\n\nAl aceptar, confirmas que leíste y entendiste la información, autorizas el uso de tus datos personales y reconoces las limitaciones del servicio.",
			ConsentPrompt:   "¿Acepta estos términos y condiciones?",
			ConsentDeclined: "Entendemos, igualmente estaremos acá dispuestos a ayudarte en un futuro 😊",
			ConsentRetry:    "Por favor, responde 'Sí, acepto' para continuar o 'No, gracias' si no deseas proceder.",
			ProcessingAck:   "¡Perfecto! He recopilado toda la información. Déjame procesarla...",
			PleaseWait:      "Estoy procesando tu información, por favor espera un momento...",
			UnderReview:     "Tu caso está siendo revisado por un especialista. Te notificaremos en cuanto haya una decisión.",
			Restarted:       "Esta conversación ha terminado. Comencemos una nueva consulta.",
			Apology:         "Lo siento, ha ocurrido un error procesando tu información. Por favor intenta más tarde.",
			TryLater:        "No pudimos conectar con nuestro servicio en este momento. Por favor intenta de nuevo más tarde.",
			FallbackOffer:   "El procesamiento está tardando más de lo esperado. ¿Deseas continuar con un análisis básico de tus respuestas? Responde 'CONTINUAR' para recibirlo o 'NO' para finalizar.",
			FallbackRetry:   "Por favor, responde 'CONTINUAR' para recibir el análisis básico o 'NO' para finalizar.",
			Farewell:        "Gracias por tu tiempo. Tu consulta ha sido procesada.",

			DecisionApproved: "✅ *DIAGNÓSTICO APROBADO*\n\nUn especialista ha revisado y APROBADO su apoyo diagnóstico.\n\nPróximos pasos: un especialista se contactará con usted pronto para continuar con su tratamiento.",
			DecisionDenied:   "⚠ *DIAGNÓSTICO REQUIERE REVISIÓN*\n\nUn especialista ha revisado su apoyo diagnóstico y considera que requiere evaluación adicional.\n\nPróximos pasos: un especialista se contactará con usted para una evaluación más detallada.",
			DecisionMixed:    "🔄 *DIAGNÓSTICO EN REVISIÓN*\n\nUn especialista ha revisado su apoyo diagnóstico y requiere evaluación mixta.\n\nPróximos pasos: un especialista se contactará con usted para discutir los detalles.",

			RegistrationPrompt:    "👨‍⚕️ *REGISTRO DE ESPECIALISTA INICIADO*\n\nPara completar tu registro como especialista validador, responde:\n\n'CONFIRMAR' - Para activar tu cuenta\n'CANCELAR' - Para cancelar el registro",
			RegistrationConfirmed: "✅ *REGISTRO COMPLETADO*\n\nTu cuenta ha sido activada. Recibirás notificaciones de nuevos casos y podrás validar apoyos diagnósticos.\n\nComandos útiles: 'ESTADO', 'AYUDA', 'INACTIVO'.",
			RegistrationCancelled: "❌ Registro cancelado. Si deseas registrarte nuevamente, envía 'DOCTOR'.",
			RegistrationRetry:     "⚠ Respuesta no válida. Para completar tu registro responde 'CONFIRMAR' o 'CANCELAR'.",
			ReviewerHelp:          "🆘 *COMANDOS DISPONIBLES*\n\n• 'ESTADO' - Ver estado actual\n• 'INACTIVO' - Pausar notificaciones\n• 'ACTIVO' - Reanudar notificaciones\n• 'APROBAR' o '1' - Aprobar diagnóstico\n• 'DENEGAR' o '2' - Denegar diagnóstico\n• 'MIXTO' o '3' - Validación mixta\n• 'AYUDA' - Mostrar este menú",
			ReviewerPaused:        "😴 Cuenta pausada. No recibirás más notificaciones de casos. Envía 'ACTIVO' para reanudar.",
			ReviewerInactive:      "😴 Tu cuenta está pausada. Para reactivarla y recibir casos, responde 'ACTIVO'.",
			ReviewerResumed:       "✅ Cuenta reactivada. Volverás a recibir notificaciones de nuevos casos.",
			ReviewGuidance:        "⚠ Respuesta no válida para el caso en revisión.\n\nPara validar el apoyo diagnóstico responde:\n• APROBAR (o 1)\n• DENEGAR (o 2)\n• MIXTO (o 3)",
			NoActiveCase:          "ℹ️ No hay casos activos para revisar. Recibirás una notificación cuando haya nuevos casos disponibles.",
			UnregisteredHelp:      "👨‍⚕️ Para registrarte como especialista validador, envía 'DOCTOR'.",
			CaseAlreadyHandled:    "ℹ️ Este caso ya fue atendido por otro especialista. Gracias por tu revisión.",
			DecisionRecorded:      "✅ Su decisión '%s' ha sido registrada y enviada al paciente.",
			CaseNotification:      "🚨 *NUEVO CASO ASIGNADO*\n\n👤 Paciente: %s\n📅 Fecha: %s\n\nRecibirás los detalles del apoyo diagnóstico a continuación...",
			DecisionPrompt:        "Por favor, revise el apoyo diagnóstico y seleccione su decisión:",
			DecisionPromptTitle:   "Decisión Médica",
			DecisionPromptPlain:   "Por favor, revise el apoyo diagnóstico y responda:\n1. APROBAR\n2. DENEGAR\n3. MIXTO",
		},
	}
}
