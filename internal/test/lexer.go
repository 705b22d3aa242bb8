package test

import (
	"math/rand"
	"strings"
)

// The separator is '|' since ';' is itself a token of the language.
const validTokens = "function|main|decay|diffuse|(|)|{|}|[|]|sample|if|else|for|to|step|return|and|or|not|abs|round|+|-|*|/|<|<=|>|>=|==|!=|=|,|;|i|delay|gain|tap|0.5|0.997|123|321|44100|1.0|12.|// comment\n|\n"

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, "|")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
