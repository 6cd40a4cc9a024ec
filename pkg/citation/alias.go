package citation

import "sort"

// AliasEntry maps a well-known short name to the instrument it designates.
type AliasEntry struct {
	Kind   Kind   `json:"kind"`
	Number uint   `json:"number,omitempty"`
	Year   uint   `json:"year"`
	Title  string `json:"title"`
}

// CanonicalID returns the canonical identifier of the aliased instrument.
func (e AliasEntry) CanonicalID() string {
	return CanonicalID(e.Kind, e.Number, e.Year)
}

// aliasTable is keyed by foldKey(name). It is filled once by init and only
// read afterwards.
var aliasTable map[string]AliasEntry

func init() {
	constituicao := AliasEntry{Kind: KindConstituicao, Year: ConstitutionYear, Title: "Constituição da República Federativa do Brasil de 1988"}
	lgpd := AliasEntry{Kind: KindLei, Number: 13709, Year: 2018, Title: "Lei Geral de Proteção de Dados Pessoais"}
	cdc := AliasEntry{Kind: KindLei, Number: 8078, Year: 1990, Title: "Código de Defesa do Consumidor"}
	marcoCivil := AliasEntry{Kind: KindLei, Number: 12965, Year: 2014, Title: "Marco Civil da Internet"}
	codigoCivil := AliasEntry{Kind: KindLei, Number: 10406, Year: 2002, Title: "Código Civil"}
	cpc := AliasEntry{Kind: KindLei, Number: 13105, Year: 2015, Title: "Código de Processo Civil"}
	ctn := AliasEntry{Kind: KindLei, Number: 5172, Year: 1966, Title: "Código Tributário Nacional"}
	eca := AliasEntry{Kind: KindLei, Number: 8069, Year: 1990, Title: "Estatuto da Criança e do Adolescente"}
	lai := AliasEntry{Kind: KindLei, Number: 12527, Year: 2011, Title: "Lei de Acesso à Informação"}
	lrf := AliasEntry{Kind: KindLeiComplementar, Number: 101, Year: 2000, Title: "Lei de Responsabilidade Fiscal"}
	anticorrupcao := AliasEntry{Kind: KindLei, Number: 12846, Year: 2013, Title: "Lei Anticorrupção"}
	licitacoes := AliasEntry{Kind: KindLei, Number: 14133, Year: 2021, Title: "Lei de Licitações e Contratos Administrativos"}
	licitacoesAntiga := AliasEntry{Kind: KindLei, Number: 8666, Year: 1993, Title: "Lei de Licitações e Contratos (1993)"}
	dieckmann := AliasEntry{Kind: KindLei, Number: 12737, Year: 2012, Title: "Lei Carolina Dieckmann"}
	mariaDaPenha := AliasEntry{Kind: KindLei, Number: 11340, Year: 2006, Title: "Lei Maria da Penha"}
	idoso := AliasEntry{Kind: KindLei, Number: 10741, Year: 2003, Title: "Estatuto da Pessoa Idosa"}
	governoDigital := AliasEntry{Kind: KindLei, Number: 14129, Year: 2021, Title: "Lei do Governo Digital"}
	liberdadeEconomica := AliasEntry{Kind: KindLei, Number: 13874, Year: 2019, Title: "Lei da Liberdade Econômica"}
	direitosAutorais := AliasEntry{Kind: KindLei, Number: 9610, Year: 1998, Title: "Lei de Direitos Autorais"}
	software := AliasEntry{Kind: KindLei, Number: 9609, Year: 1998, Title: "Lei do Software"}
	cadastroPositivo := AliasEntry{Kind: KindLei, Number: 12414, Year: 2011, Title: "Lei do Cadastro Positivo"}
	sigiloBancario := AliasEntry{Kind: KindLeiComplementar, Number: 105, Year: 2001, Title: "Lei do Sigilo Bancário"}
	fichaLimpa := AliasEntry{Kind: KindLeiComplementar, Number: 135, Year: 2010, Title: "Lei da Ficha Limpa"}
	decretoMarcoCivil := AliasEntry{Kind: KindDecreto, Number: 8771, Year: 2016, Title: "Regulamento do Marco Civil da Internet"}
	icpBrasil := AliasEntry{Kind: KindMedidaProvisoria, Number: 2200, Year: 2001, Title: "Infraestrutura de Chaves Públicas Brasileira"}

	names := map[string]AliasEntry{
		"cf":                           constituicao,
		"cf/88":                        constituicao,
		"cf/1988":                      constituicao,
		"cf 88":                        constituicao,
		"crfb":                         constituicao,
		"crfb/88":                      constituicao,
		"crfb/1988":                    constituicao,
		"constituicao":                 constituicao,
		"constituicao federal":         constituicao,
		"constituicao federal de 1988": constituicao,
		"constituicao de 1988":         constituicao,

		"lgpd":                                    lgpd,
		"lei geral de protecao de dados":          lgpd,
		"lei geral de protecao de dados pessoais": lgpd,

		"cdc":                            cdc,
		"codigo de defesa do consumidor": cdc,

		"marco civil":             marcoCivil,
		"marco civil da internet": marcoCivil,
		"mci":                     marcoCivil,

		"cc":           codigoCivil,
		"cc/02":        codigoCivil,
		"cc/2002":      codigoCivil,
		"codigo civil": codigoCivil,

		"cpc":                      cpc,
		"cpc/15":                   cpc,
		"cpc/2015":                 cpc,
		"codigo de processo civil": cpc,

		"ctn":                        ctn,
		"codigo tributario nacional": ctn,

		"eca":                                  eca,
		"estatuto da crianca e do adolescente": eca,

		"lai":                        lai,
		"lei de acesso a informacao": lai,

		"lrf":                            lrf,
		"lei de responsabilidade fiscal": lrf,

		"lei anticorrupcao":    anticorrupcao,
		"lei da empresa limpa": anticorrupcao,

		"nova lei de licitacoes":   licitacoes,
		"lei de licitacoes":        licitacoes,
		"lei 8.666":                licitacoesAntiga,
		"antiga lei de licitacoes": licitacoesAntiga,

		"lei carolina dieckmann": dieckmann,
		"lei maria da penha":     mariaDaPenha,

		"estatuto do idoso":        idoso,
		"estatuto da pessoa idosa": idoso,

		"lei do governo digital":     governoDigital,
		"lei da liberdade economica": liberdadeEconomica,
		"lei de direitos autorais":   direitosAutorais,
		"lda":                        direitosAutorais,
		"lei do software":            software,
		"lei de software":            software,
		"lei do cadastro positivo":   cadastroPositivo,
		"lei do sigilo bancario":     sigiloBancario,
		"lei da ficha limpa":         fichaLimpa,

		"decreto do marco civil":     decretoMarcoCivil,
		"regulamento do marco civil": decretoMarcoCivil,

		"icp-brasil": icpBrasil,
	}

	aliasTable = make(map[string]AliasEntry, len(names))
	for name, entry := range names {
		aliasTable[foldKey(name)] = entry
	}
}

// LookupAlias resolves a short name such as "LGPD" or "Marco Civil".
// Matching ignores case, accents and repeated whitespace.
func LookupAlias(name string) (AliasEntry, bool) {
	entry, ok := aliasTable[foldKey(name)]
	return entry, ok
}

// Aliases returns every alias key in sorted order.
func Aliases() []string {
	names := make([]string, 0, len(aliasTable))
	for name := range aliasTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
