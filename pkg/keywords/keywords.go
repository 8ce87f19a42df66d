// Package keywords counts significant words of page text, used to suggest
// dc:subject statements.
package keywords

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// stopwords are English function words and navigation noise.
var stopwords = toSet(`
a about above across after afterwards again against all almost alone along already also although
always am among amongst amount an and another any anyhow anyone anything anyway anywhere are
aren't around as at back be became because become becomes becoming been before beforehand behind
being below beside besides between beyond both but by can can't cannot could couldn't did didn't
do does doesn't doing don't done down during each either else elsewhere enough entirely
especially etc even ever every everyone everything everywhere few for former formerly from
further had hadn't has hasn't have haven't having he he'd he'll he's hence her here hereafter
hereby herein here's hereupon hers herself him himself his how however i i'd i'll i'm i've if in
indeed into is isn't it it's its itself just keep last latter latterly least less let let's like
likely made make many may maybe me meanwhile might mine more moreover most mostly much must
mustn't my myself neither never nevertheless next no nobody none noone nor not nothing now
nowhere of off often on once one only onto or other others otherwise our ours ourselves out over
own part per perhaps please put rather re same see seem seemed seeming seems several she she'd
she'll she's should shouldn't since so some somehow someone something sometime sometimes
somewhere still such take than that that's the their theirs them themselves then thence there
thereafter thereby therefore therein there's thereupon these they they'd they'll they're they've
this those through throughout thru thus to together too toward towards under until up upon us use
very via was wasn't we we'd we'll we're we've well were weren't what whatever what's when whence
whenever where whereafter whereas whereby wherein where's whereupon wherever whether which while
whither who who'd whoever who'll who's whose why with within without won't would wouldn't yet you
you'd you'll you're you've your yours yourself yourselves ain't it'll shan't that'll when's
click clicked clicking button link menu redirect redirected redirecting page pages website site
home homepage search searching searched loading loaded load loads
`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword checks if a word is a common stopword that should be filtered out.
func IsStopword(word string) bool {
	_, exists := stopwords[strings.ToLower(word)]
	return exists
}

// Frequency counts the words of text, lowercased and trimmed of punctuation.
// Stopwords and single characters are skipped.
func Frequency(text string) map[string]int {
	frequencies := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) < 2 || IsStopword(word) {
			continue
		}
		frequencies[word]++
	}
	return frequencies
}

// Reduce aggregates word frequency maps into a single map.
func Reduce(counts ...map[string]int) map[string]int {
	out := make(map[string]int)
	for _, c := range counts {
		for word, n := range c {
			out[word] += n
		}
	}
	return out
}

// Keyword is a word and its count.
type Keyword struct {
	Word  string
	Count int
}

func (k Keyword) String() string {
	return fmt.Sprintf("%s:%d", k.Word, k.Count)
}

// isValid filters malformed tokens such as unmatched delimiters or quotes.
func isValid(word string) bool {
	if strings.HasSuffix(word, ":") || strings.HasSuffix(word, "=") {
		return false
	}
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}} {
		if strings.Contains(word, pair[0]) && !strings.Contains(word, pair[1]) {
			return false
		}
	}
	return strings.Count(word, `"`)%2 == 0 && strings.Count(word, "'")%2 == 0
}

// Top returns the n most frequent words, ties ordered alphabetically.
func Top(counts map[string]int, n int) []Keyword {
	ss := make([]Keyword, 0, len(counts))
	for w, c := range counts {
		if isValid(w) {
			ss = append(ss, Keyword{w, c})
		}
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Word < ss[j].Word
	})
	if n >= 0 && len(ss) > n {
		ss = ss[:n]
	}
	return ss
}
