package cmdparse

import "maps"

// QuoteAliasMap maps an opening quote character to its closing character.
// An empty map only knows the plain double quote.
type QuoteAliasMap map[rune]rune

const defaultQuote = '"'

var defaultQuoteAliases = QuoteAliasMap{
	'"': '"',
	'«': '»',
	'‘': '’',
	'“': '”',
	'„': '‟',
	'‹': '›',
	'‚': '‛',
	'《': '》',
	'〈': '〉',
	'「': '」',
	'『': '』',
	'〝': '〞',
	'﹁': '﹂',
	'﹃': '﹄',
	'＂': '＂',
	'＇': '＇',
	'｢': '｣',
	'(': ')',
	'༺': '༻',
	'༼': '༽',
	'᚛': '᚜',
	'⁅': '⁆',
	'⌈': '⌉',
	'⌊': '⌋',
	'❨': '❩',
	'❪': '❫',
	'❬': '❭',
	'❮': '❯',
	'❰': '❱',
	'❲': '❳',
	'❴': '❵',
	'⟅': '⟆',
	'⟦': '⟧',
	'⟨': '⟩',
	'⟪': '⟫',
	'⟬': '⟭',
	'⟮': '⟯',
	'⦃': '⦄',
	'⦅': '⦆',
	'⦇': '⦈',
	'⦉': '⦊',
	'⦋': '⦌',
	'⦍': '⦎',
	'⦏': '⦐',
	'⦑': '⦒',
	'⦓': '⦔',
	'⦕': '⦖',
	'⦗': '⦘',
	'⧘': '⧙',
	'⧚': '⧛',
	'⧼': '⧽',
	'⸂': '⸃',
	'⸄': '⸅',
	'⸉': '⸊',
	'⸌': '⸍',
	'⸜': '⸝',
	'⸠': '⸡',
	'⸢': '⸣',
	'⸤': '⸥',
	'⸦': '⸧',
	'⸨': '⸩',
	'【': '】',
	'〔': '〕',
	'〖': '〗',
	'〘': '〙',
	'〚': '〛',
}

// DefaultQuoteAliases returns a copy of the extended quote table, covering
// the common typographic and CJK quote and bracket pairs.
func DefaultQuoteAliases() QuoteAliasMap {
	return defaultQuoteAliases.Clone()
}

// QuoteAliasesFromStrings builds a table from string pairs, as found in config
// files. Keys and values must be single characters.
func QuoteAliasesFromStrings(pairs map[string]string) (QuoteAliasMap, bool) {
	aliases := make(QuoteAliasMap, len(pairs))
	for open, closing := range pairs {
		o, c := []rune(open), []rune(closing)
		if len(o) != 1 || len(c) != 1 {
			return nil, false
		}
		aliases[o[0]] = c[0]
	}
	return aliases, true
}

func (m QuoteAliasMap) Clone() QuoteAliasMap {
	return maps.Clone(m)
}

// closeFor returns the closing quote for c if c opens a quote.
func (m QuoteAliasMap) closeFor(c rune) (rune, bool) {
	if len(m) == 0 {
		return defaultQuote, c == defaultQuote
	}
	closing, ok := m[c]
	return closing, ok
}
