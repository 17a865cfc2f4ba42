package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"printsheet/internal/email"
	"regexp"
	"strings"
)

// ErrInvalidResponse means the model answered, but not with the expected json object.
var ErrInvalidResponse = errors.New("invalid response from model")

const promptTemplate = `
You are a precise parser.

Analyze the following printing request email:

"%s"

Extract the following two fields:
1. What is being printed
2. Who is requesting the printing

Return ONLY raw JSON.

Respond exactly like this:
{
  "whatIsBeingPrinted": "...",
  "whoIsPrinting": "..."
}

responses should never be longer than 200 characters long.
`

// BuildPrompt embeds the email content verbatim into the extraction prompt.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, content)
}

// codeFence matches a "```json" opener at the very start of the text (plus any
// whitespace after it) and a "```" closer at the very end.
var codeFence = regexp.MustCompile("^```json\\s*|```$")

// StripCodeFence removes the markdown code fence models like to wrap json in,
// text that is not fenced is only trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = codeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseExtraction parses a model response into an Extraction. The response must be a
// json object with `whatIsBeingPrinted` and `whoIsPrinting` as strings, any other
// fields are ignored.
func ParseExtraction(text string) (email.Extraction, error) {
	var parsed map[string]any
	err := json.Unmarshal([]byte(StripCodeFence(text)), &parsed)
	if err != nil {
		return email.Extraction{}, fmt.Errorf("%w: parse json: %s", ErrInvalidResponse, err.Error())
	}

	what, ok := parsed["whatIsBeingPrinted"].(string)
	if !ok {
		return email.Extraction{}, fmt.Errorf("%w: whatIsBeingPrinted is missing or not a string", ErrInvalidResponse)
	}
	who, ok := parsed["whoIsPrinting"].(string)
	if !ok {
		return email.Extraction{}, fmt.Errorf("%w: whoIsPrinting is missing or not a string", ErrInvalidResponse)
	}

	return email.Extraction{
		WhatIsBeingPrinted: what,
		WhoIsPrinting:      who,
	}, nil
}
