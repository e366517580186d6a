// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package game

import (
	"fmt"
	"strings"
)

// CorrectMarker prefixes the correct option when a quiz is authored as a page's items.
const CorrectMarker = "*"

// QuizState is the phase of a [Quiz].
type QuizState string

const (
	QuizAsking   QuizState = "asking"
	QuizAnswered QuizState = "answered"
	QuizFinished QuizState = "finished"
)

// Question is one multiple-choice prompt.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"-"`
}

// QuestionFromItems builds a question from authored items.
//
// The item prefixed with [CorrectMarker] is the correct option; the marker is stripped.
// When no item is marked the first one is correct. Blank items are skipped.
func QuestionFromItems(prompt string, items []string) (Question, error) {
	question := Question{Prompt: strings.TrimSpace(prompt)}
	marked := -1

	for _, raw := range items {
		option := strings.TrimSpace(raw)
		if option == "" {
			continue
		}
		if strings.HasPrefix(option, CorrectMarker) {
			option = strings.TrimSpace(strings.TrimPrefix(option, CorrectMarker))
			if marked >= 0 {
				return Question{}, fmt.Errorf("%w: more than one option is marked correct", ErrInvalidGame)
			}
			marked = len(question.Options)
		}
		question.Options = append(question.Options, option)
	}

	if len(question.Options) < 2 {
		return Question{}, fmt.Errorf("%w: a question needs at least two options", ErrInvalidGame)
	}
	if marked >= 0 {
		question.Answer = marked
	}
	return question, nil
}

// Quiz walks a list of questions: asking → answered → asking … → finished.
type Quiz struct {
	questions []Question
	index     int
	state     QuizState
	score     int
	last      bool
}

// NewQuiz validates the questions and starts in the asking state.
func NewQuiz(questions []Question) (*Quiz, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: a quiz needs at least one question", ErrInvalidGame)
	}
	for i, q := range questions {
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d has no valid answer", ErrInvalidGame, i+1)
		}
	}

	return &Quiz{
		questions: append([]Question(nil), questions...),
		state:     QuizAsking,
	}, nil
}

// Current returns the question being asked or just answered.
func (quiz *Quiz) Current() (Question, bool) {
	if quiz.state == QuizFinished {
		return Question{}, false
	}
	return quiz.questions[quiz.index], true
}

// Answer records the chosen option for the current question.
func (quiz *Quiz) Answer(option int) (bool, error) {
	if quiz.state != QuizAsking {
		return false, fmt.Errorf("%w: quiz is %s", ErrWrongState, quiz.state)
	}

	question := quiz.questions[quiz.index]
	if option < 0 || option >= len(question.Options) {
		return false, fmt.Errorf("%w: option %d", ErrOutOfRange, option)
	}

	quiz.last = option == question.Answer
	if quiz.last {
		quiz.score++
	}
	quiz.state = QuizAnswered
	return quiz.last, nil
}

// Next advances past an answered question.
func (quiz *Quiz) Next() error {
	if quiz.state != QuizAnswered {
		return fmt.Errorf("%w: quiz is %s", ErrWrongState, quiz.state)
	}

	quiz.index++
	if quiz.index >= len(quiz.questions) {
		quiz.state = QuizFinished
		return nil
	}
	quiz.state = QuizAsking
	return nil
}

func (quiz *Quiz) State() QuizState     { return quiz.state }
func (quiz *Quiz) Score() int           { return quiz.score }
func (quiz *Quiz) Total() int           { return len(quiz.questions) }
func (quiz *Quiz) Finished() bool       { return quiz.state == QuizFinished }
func (quiz *Quiz) LastCorrect() bool    { return quiz.last }
func (quiz *Quiz) Position() (int, int) { return quiz.index + 1, len(quiz.questions) }
