package selection

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert editor of viral short-form video. You pick self-contained moments from long-form transcripts and answer with JSON only.`

const userPromptTemplate = `Select the %d BEST viral clips from this transcript.

RULES:
1. Each clip starts at the exact beginning of a sentence or thought and ends where that thought completes.
2. Never cut mid-sentence or mid-word.
3. Each clip is %d-%d seconds long.
4. Clips do not overlap and use the exact timestamps provided.
5. Prefer hooks, revelations, advice, stories, funny moments, quotable one-liners and question-answer pairs.

VIDEO DURATION: %.1f seconds

TRANSCRIPT WITH TIMESTAMPS:
%s
Return JSON shaped like:
{"clips":[{"start":34.5,"end":67.2,"title":"Hook or thought","virality_score":85,"hook_type":"story_reveal","reason":"Complete story with a clear ending"}]}`

func buildUserPrompt(timestamped string, req Request) string {
	return fmt.Sprintf(userPromptTemplate,
		req.Clips,
		int(req.MinSeconds),
		int(req.MaxSeconds),
		req.Duration,
		strings.TrimRight(timestamped, "\n")+"\n",
	)
}
