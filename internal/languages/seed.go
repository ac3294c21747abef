package languages

// Builtin returns seed profiles so the pipeline is usable before an
// administrator loads a language file. Stop-word lists are short on
// purpose: detection needs the highest-frequency function words, not an
// exhaustive lexicon.
func Builtin() []Language {
	return []Language{
		{
			Code: "en",
			Name: "English",
			Stopwords: []string{
				"the", "be", "is", "are", "was", "were", "to", "of", "and", "a",
				"an", "in", "that", "have", "has", "had", "it", "for", "not", "on",
				"with", "he", "she", "as", "you", "do", "at", "this", "but", "his",
				"her", "by", "from", "they", "we", "say", "or", "will", "my", "one",
				"all", "would", "there", "their", "what", "so", "up", "out", "if",
			},
			Tokenizer: TokenizerUnicode,
		},
		{
			Code: "es",
			Name: "Spanish",
			Stopwords: []string{
				"de", "la", "que", "el", "en", "y", "a", "los", "del", "se",
				"las", "por", "un", "para", "con", "no", "una", "su", "al", "lo",
				"como", "más", "pero", "sus", "le", "ya", "o", "este", "sí", "porque",
				"esta", "entre", "cuando", "muy", "sin", "sobre", "también", "me",
				"hasta", "hay", "donde", "quien", "desde", "todo", "nos", "durante",
			},
			Tokenizer:      TokenizerUnicode,
			FoldDiacritics: true,
		},
		{
			Code: "fr",
			Name: "French",
			Stopwords: []string{
				"le", "de", "un", "être", "et", "à", "il", "avoir", "ne", "je",
				"son", "que", "se", "qui", "ce", "dans", "en", "du", "elle", "au",
				"pour", "pas", "sur", "faire", "plus", "dire", "me", "on", "mon",
				"lui", "nous", "comme", "mais", "avec", "tout", "y", "aller", "voir",
				"bien", "où", "sans", "tu", "ou", "leur", "si", "deux", "même",
			},
			Tokenizer:      TokenizerUnicode,
			FoldDiacritics: true,
		},
		{
			Code: "de",
			Name: "German",
			Stopwords: []string{
				"der", "die", "und", "in", "den", "von", "zu", "das", "mit", "sich",
				"des", "auf", "für", "ist", "im", "dem", "nicht", "ein", "eine", "als",
				"auch", "es", "an", "werden", "aus", "er", "hat", "dass", "sie", "nach",
				"wird", "bei", "einer", "um", "am", "sind", "noch", "wie", "einem",
				"über", "einen", "so", "zum", "war", "haben", "nur", "oder", "aber",
			},
			Tokenizer:      TokenizerUnicode,
			FoldDiacritics: true,
		},
	}
}
