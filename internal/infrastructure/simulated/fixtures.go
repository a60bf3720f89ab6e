package simulated

import "TrendPress/internal/domain"

// Fixture is the offline data set used by the simulate command.
type Fixture struct {
	Trends    *TrendSource
	News      *NewsSource
	Rewriter  *Rewriter
	Publisher *Publisher
}

// DefaultFixture mirrors a typical Brazilian trends day. Only two of the
// trends have news, so a run exercises both the success and the skip path.
func DefaultFixture() Fixture {
	terms := []string{"Copa do Brasil", "Eleições 2026", "Inteligência Artificial", "Olimpíadas", "Pandemia"}
	trends := make([]domain.Trend, len(terms))
	for i, term := range terms {
		trends[i] = domain.Trend{Term: term, Rank: i + 1}
	}

	return Fixture{
		Trends: &TrendSource{Trends: trends},
		News: &NewsSource{Items: map[string][]domain.NewsItem{
			"Copa do Brasil": {{
				Title:      "Flamengo vence e avança para as quartas de final da Copa do Brasil",
				Body:       "Em jogo emocionante, o Flamengo venceu o Athletico-PR por 2 a 1 e garantiu vaga nas quartas de final da Copa do Brasil. Os gols foram marcados por Pedro e Arrascaeta.",
				URL:        "https://example.com/esportes/flamengo-copa-do-brasil",
				SourceName: "Exemplo Esportes",
			}},
			"Inteligência Artificial": {{
				Title:      "Nova ferramenta de IA promete revolucionar diagnósticos médicos",
				Body:       "Pesquisadores brasileiros desenvolveram uma ferramenta de inteligência artificial capaz de identificar doenças raras com precisão superior a 95%.",
				URL:        "https://example.com/tecnologia/ia-diagnosticos",
				SourceName: "Exemplo Tecnologia",
			}},
		}},
		Rewriter:  &Rewriter{},
		Publisher: &Publisher{NextID: 12345},
	}
}
