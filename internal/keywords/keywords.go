// Package keywords holds the static trigger tables the parser matches
// free-form input against. The tables are plain data; all matching logic
// lives in the parser.
package keywords

// CategoryRule maps a display category name to the substrings that select
// it. Rules are evaluated in declaration order and the first match wins,
// so the order of the slice is part of the contract.
type CategoryRule struct {
	Name     string
	Triggers []string
}

// Tables bundles everything the parser needs so it can be constructed by
// injection instead of reaching for package globals.
type Tables struct {
	IncomeKeywords []string
	CategoryRules  []CategoryRule
	Fallback       string
}

// FallbackCategory is assigned when nothing else matches.
const FallbackCategory = "Outros"

// DefaultCategories are seeded into the category registry on first run.
var DefaultCategories = []string{
	"Lazer",
	"Alimentação",
	"Mercado",
	"Aluguel",
	"Transporte",
	"Saúde",
	"Educação",
	"Outros",
}

// IncomeKeywords flag a phrase as income when any of them appears anywhere
// in the lowercased text. Accented and unaccented spellings are both
// listed because users type either.
var IncomeKeywords = []string{
	"salario",
	"salário",
	"recebido",
	"pix",
	"deposito",
	"depósito",
	"transferencia",
	"transferência",
	"pagamento",
	"renda",
	"bonus",
	"bônus",
}

// CategoryRules is the ordered expense category table.
var CategoryRules = []CategoryRule{
	{Name: "Lazer", Triggers: []string{"lazer", "cinema", "show", "jogo", "festa", "bar", "balada"}},
	{Name: "Alimentação", Triggers: []string{"comida", "restaurante", "lanche", "delivery", "ifood"}},
	{Name: "Mercado", Triggers: []string{"mercado", "supermercado", "feira", "compras"}},
	{Name: "Aluguel", Triggers: []string{"aluguel", "aluga", "condominio", "condomínio"}},
	{Name: "Transporte", Triggers: []string{"uber", "taxi", "táxi", "gasolina", "ônibus", "onibus", "transporte"}},
	{Name: "Saúde", Triggers: []string{"saude", "saúde", "farmacia", "farmácia", "medico", "médico", "hospital"}},
	{Name: "Educação", Triggers: []string{"educacao", "educação", "curso", "faculdade", "livro", "material"}},
}

// Default returns the built-in tables.
func Default() Tables {
	return Tables{
		IncomeKeywords: IncomeKeywords,
		CategoryRules:  CategoryRules,
		Fallback:       FallbackCategory,
	}
}
