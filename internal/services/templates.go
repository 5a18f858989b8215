// Package services – local response templates.
//
// Pre-written motivational replies served without any API call. Multiple
// options per category avoid repetition; a handful of context rules pick a
// specific line when the day's history warrants it (rest after a long work
// stretch, repeated activity, and so on).
package services

import (
	"math/rand"
)

// localTemplates maps an emoji category to its canned replies. Categories
// follow the classifier's fixed vocabulary; unknown categories fall back to
// "📝 Outros".
var localTemplates = map[string][]string{
	"💼 Trabalho": {
		"Foco total! 💪",
		"Produtividade em alta! 🚀",
		"Vai que é sua! 💼",
		"Trabalho bem executado!",
		"Mantém o ritmo! ⚡",
		"Arrasando no trampo! 🔥",
		"Profissionalismo nota 10! ⭐",
		"Foco e determinação! 🎯",
	},
	"🍳 Alimentação": {
		"Bom apetite! 🍽️",
		"Recarregando energias! ⚡",
		"Hora de se alimentar bem! 🥗",
		"Nutrição é fundamental! 💪",
		"Que seja delicioso! 😋",
		"Saboreando com calma! ☕",
		"Comida boa, vida boa! 🍲",
	},
	"🚿 Higiene": {
		"Cuidando de você! ✨",
		"Higiene em dia! 🧼",
		"Renovado! 🚿",
		"Auto-cuidado importa! 💙",
		"Limpinho! 😊",
		"Fresquinho agora! 🌊",
		"Cuidados essenciais! ⭐",
	},
	"🧘 Saúde": {
		"Saúde em primeiro lugar! 💚",
		"Descansando bem! 😴",
		"Corpo agradece! 🙏",
		"Equilíbrio é chave! ⚖️",
		"Cuidando do essencial! 💪",
		"Bem-estar garantido! ✨",
		"Mente e corpo em dia! 🧘",
	},
	"🎮 Lazer": {
		"Aproveite! 🎉",
		"Momento de relaxar! 😌",
		"Diversão merecida! 🎮",
		"Equilíbrio é tudo! ⚖️",
		"Hora de curtir! 🎊",
		"Relaxa e aproveita! 🌟",
		"Lazer também é importante! 🎭",
	},
	"🏠 Casa": {
		"Casa organizada! 🏡",
		"Lar bem cuidado! 💙",
		"Ambiente em ordem! ✨",
		"Limpeza feita! 🧹",
		"Organização top! 📦",
		"Casa arrumada, mente tranquila! 🌸",
		"Capricho no lar! 🏠",
	},
	"📚 Estudos": {
		"Conhecimento é poder! 📖",
		"Aprendendo sempre! 🧠",
		"Evolução constante! 📈",
		"Dedicação aos estudos! ⭐",
		"Investindo em você! 💡",
		"Aprendizado contínuo! 🎓",
		"Foco nos estudos! 📚",
	},
	"🛒 Compras": {
		"Comprinha em dia! 🛒",
		"Lista completa! ✅",
		"Abastecimento feito! 🛍️",
		"Organização nas compras! 📝",
	},
	"🚗 Transporte": {
		"Bora lá! 🚗",
		"A caminho! 🛣️",
		"Deslocamento em curso! 🚙",
		"Viagem iniciada! ✈️",
	},
	"👥 Social": {
		"Conexões importam! 💬",
		"Momento social! 👥",
		"Relacionamentos alimentam! 💙",
		"Bom papo! ☕",
		"Tempo de qualidade! ⭐",
	},
	"📝 Outros": {
		"Registrado! ✅",
		"Atividade anotada! 📝",
		"Mais uma feita! 👍",
		"Continuando o dia! 🌟",
		"Ação registrada! ✔️",
		"Marcado! 📌",
	},
}

// repetitionTemplates answer a third-or-later occurrence of the same
// activity in a day.
var repetitionTemplates = []string{
	"De novo? Tá dedicado(a) hoje! 💪",
	"Mais uma rodada! Persistência é tudo! 🔄",
	"Caprichando na repetição! ✨",
}

// TemplateContext carries the day-history signals that select a
// context-specific template over a random one.
type TemplateContext struct {
	PreviousCategory   string
	TotalMinutesWorked int
	SameActivityCount  int
}

// LocalTemplate picks a canned reply for category. The context rules are
// evaluated in order; when none applies the pick is uniform over the
// category's options using rng (callers seed it, tests pin it).
func LocalTemplate(category string, ctx *TemplateContext, rng *rand.Rand) string {
	options, ok := localTemplates[category]
	if !ok {
		options = localTemplates["📝 Outros"]
	}

	if ctx != nil {
		// Rest after a long work stretch.
		if category == "🧘 Saúde" && ctx.PreviousCategory == "💼 Trabalho" && ctx.TotalMinutesWorked > 180 {
			return "Descanso merecido após tanto trabalho! 😌"
		}
		// Leisure after work.
		if category == "🎮 Lazer" && ctx.PreviousCategory == "💼 Trabalho" && ctx.TotalMinutesWorked > 120 {
			return "Trabalhou bem, agora é hora de relaxar! 🎮"
		}
		// Same activity repeated through the day.
		if ctx.SameActivityCount >= 3 {
			return repetitionTemplates[rng.Intn(len(repetitionTemplates))]
		}
		// Long work session without a break.
		if category == "💼 Trabalho" && ctx.TotalMinutesWorked > 360 {
			return "Jornada intensa! Já pensou em uma pausa? 💼⏸️"
		}
		// First leisure of a light day.
		if category == "🎮 Lazer" && ctx.TotalMinutesWorked < 60 {
			return "Começando o dia com leveza! 😊"
		}
	}

	return options[rng.Intn(len(options))]
}
