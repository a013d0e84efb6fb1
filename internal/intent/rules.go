package intent

import "docdex/internal/domain"

// defaultRules is the built-in rule table, ordered by priority. Patterns
// match the lower-cased query anywhere; Portuguese and English phrasings
// share one rule per intent so both map onto the same canonical functions.
// Short English words carry \b guards because substring matches are far
// noisier in English than in the Portuguese originals. Function-name
// patterns exist because unmatched queries are never searched, so "how do
// I use is_valid" must land on its topic, not on the fallback.
//
// The greeting/identity rules sit last on purpose: a mixed query such as
// "Bom dia! Como usar lookup?" must classify as technical.
func defaultRules() []rule {
	return []rule{
		{
			intent: domain.IntentConditionalLogic,
			patterns: compile(
				`(como|como usar|usar).*(condição|condicional|se|caso|if)`,
				`(transformação|transformar).*(condicional)`,
				`(quando|se).*(então|then)`,
				`(múltiplas|várias).*(condições|condição)`,
				`(how|como|use|usar|using).*\b(conditional|conditions|condition)\b`,
				`\bif\b.*\b(then|else|otherwise)\b`,
				`(multiple|several).*\b(conditions|condition)\b`,
				`\bcase\b.*\b(when|statement)\b`,
				`\b(decode|ifthenelse)\b`,
			),
			functions: []string{"decode", "ifthenelse", "case"},
			synonyms:  []string{"conditional transformation", "if else logic", "case statement"},
		},
		{
			intent: domain.IntentDataLookup,
			patterns: compile(
				`(como|como usar|usar).*(buscar|procurar|consultar|referência)`,
				`(tabela|tabela de).*(referência|lookup)`,
				`(join|junção).*(tabela)`,
				`(relacionar|associar).*(dados)`,
				`(how|como|use|usar|using).*\b(lookup|lookups|search|reference)\b`,
				`\b(reference|dimension)\b.*\btables?\b`,
				`\bjoin\b.*\btables?\b`,
				`(relate|associate|link).*\bdata\b`,
				`\b(lookup_ext|lookup_seq)\b`,
			),
			functions: []string{"lookup", "lookup_ext", "lookup_seq", "join"},
			synonyms:  []string{"data lookup", "reference table", "dimension lookup"},
		},
		{
			intent: domain.IntentDataValidation,
			patterns: compile(
				`(como|como usar|usar).*(validar|validação)`,
				`(verificar|checar).*(dados|informação)`,
				`(qualidade).*(dados)`,
				`(erro|inválido).*(dados)`,
				`(how|como|use|usar|using).*\b(validate|validation)\b`,
				`(verify|check).*\b(data|information)\b`,
				`\bdata\b.*\bquality\b`,
				`(error|invalid).*\bdata\b`,
				`\b(is_valid|is_number|is_date|match_pattern)\b`,
			),
			functions: []string{"is_valid", "is_number", "is_date", "match_pattern"},
			synonyms:  []string{"data validation", "data quality", "data cleansing"},
		},
		{
			intent: domain.IntentStringOps,
			patterns: compile(
				`(como|como usar|usar).*(texto|string|cadeia)`,
				`(manipular|transformar).*(texto|string)`,
				`(concatenar|juntar).*(texto|palavras)`,
				`(extrair|pegar).*(parte|pedaço).*(texto)`,
				`(how|como|use|usar|using).*\b(text|string|strings|substring)\b`,
				`(manipulate|transform).*\b(text|string|strings)\b`,
				`(concat|concatenate|join).*\b(text|words|strings)\b`,
				`(extract|take).*\b(part|piece)\b.*\btext\b`,
				`\b(substr|concat)\b`,
			),
			functions: []string{"substr", "concat", "lower", "upper", "trim", "replace"},
			synonyms:  []string{"string functions", "text manipulation", "string handling"},
		},
		{
			intent: domain.IntentDateOps,
			patterns: compile(
				`(como|como usar|usar).*(data|datahora|timestamp)`,
				`(calcular|somar|subtrair).*(data|dias)`,
				`(formato|formatar).*(data)`,
				`(data).*(atual|hoje|sistema)`,
				`(how|como|use|usar|using).*\b(date|dates|datetime|timestamp|timestamps)\b`,
				`(calculate|add|subtract).*\b(date|dates|days)\b`,
				`format.*\bdates?\b`,
				`\bdates?\b.*\b(current|today|system)\b`,
				`\b(date_diff|add_days|to_date|sysdate)\b`,
			),
			functions: []string{"add_days", "date_diff", "to_date", "sysdate"},
			synonyms:  []string{"date functions", "datetime operations", "timestamp"},
		},
		{
			intent: domain.IntentAggregation,
			patterns: compile(
				`(como|como usar|usar).*(somar|total|média|médio|contar)`,
				`(agregação|agregar).*(dados)`,
				`(soma|total|média|contagem)`,
				`(group by|agrupar).*(dados)`,
				`(how|como|use|usar|using).*\b(sum|total|average|count|aggregate)\b`,
				`(aggregate|aggregation).*\bdata\b`,
				`\b(sum|total|average|count)\b`,
				`\bgroup by\b`,
			),
			functions: []string{"sum", "avg", "count", "min", "max"},
			synonyms:  []string{"aggregate functions", "group by operations", "summary functions"},
		},
		{
			intent: domain.IntentGeneral,
			patterns: compile(
				`^(oi|olá|ola|bom dia|boa tarde|boa noite|hi|hello|hey)\b`,
				`^good (morning|afternoon|evening)\b`,
				`\b(obrigado|obrigada|thanks|thank you|valeu)\b`,
				`(quem é você|who are you\b|what are you\b)`,
			),
		},
	}
}
