// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package game implements the mini-games an interactive page can embed.

Each game is a small state machine ([Quiz], [Jigsaw]) plus a renderer that draws its
current state as a visual tree. Layouts only ever call [Embed]; reader sessions keep the
state machines alive between moves and redraw them with [QuizNode] / [JigsawNode].
*/
package game

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/theme"
)

// # Errors

var (
	ErrUnknownGame = errors.New("game: unknown game")
	ErrInvalidGame = errors.New("game: invalid game content")
	ErrWrongState  = errors.New("game: move not allowed in current state")
	ErrOutOfRange  = errors.New("game: move out of range")
)

// # Kinds

// Kind names an embeddable game. It is the value of a page's interactiveGame field.
type Kind string

const (
	KindQuiz   Kind = "quiz"
	KindJigsaw Kind = "jigsaw"
)

// ParseKind normalises an interactiveGame token.
func ParseKind(token string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(token))) {
	case KindQuiz:
		return KindQuiz, true
	case KindJigsaw:
		return KindJigsaw, true
	}
	return "", false
}

// Kinds lists every embeddable game in picker order.
func Kinds() []Kind { return []Kind{KindQuiz, KindJigsaw} }

// Input is the page content a game draws from.
type Input struct {
	Prompt string
	Image  string
	Items  []string

	// Seed drives the jigsaw shuffle. Zero derives a seed from the content.
	Seed uint64

	// Board is the available box. Zero uses [DefaultBoard].
	Board geom.Size
}

// SeedOf derives a stable shuffle seed from the content so a page always opens with
// the same arrangement.
func SeedOf(in Input) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(in.Image))
	for _, item := range in.Items {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(item))
	}
	return h.Sum64()
}

// NewQuizFor builds the single-question quiz an interactive page describes.
func NewQuizFor(in Input) (*Quiz, error) {
	question, err := QuestionFromItems(in.Prompt, in.Items)
	if err != nil {
		return nil, err
	}
	return NewQuiz([]Question{question})
}

// NewJigsawFor builds the puzzle an interactive page describes. The first item may
// carry an "RxC" grid token.
func NewJigsawFor(in Input) (*Jigsaw, error) {
	if !theme.IsURL(in.Image) {
		return nil, fmt.Errorf("%w: a jigsaw needs an image URL", ErrInvalidGame)
	}

	rows, cols := DefaultGrid, DefaultGrid
	if len(in.Items) > 0 {
		rows, cols = ParseGrid(in.Items[0])
	}

	seed := in.Seed
	if seed == 0 {
		seed = SeedOf(in)
	}
	return NewJigsaw(rows, cols, seed)
}

// # Rendering

// Embed renders the initial state of the named game.
// Unknown kinds and unusable content render a short "not available" note instead.
func Embed(kind string, in Input) *html.Node {
	parsed, ok := ParseKind(kind)
	if !ok {
		return unavailable(kind, "Juego no disponible")
	}

	switch parsed {
	case KindQuiz:
		quiz, err := NewQuizFor(in)
		if err != nil {
			return unavailable(kind, "Cuestionario incompleto")
		}
		return QuizNode(quiz)

	case KindJigsaw:
		jigsaw, err := NewJigsawFor(in)
		if err != nil {
			return unavailable(kind, "Rompecabezas sin imagen")
		}
		board := in.Board
		if board.IsZero() {
			board = DefaultBoard
		}
		return JigsawNode(jigsaw, in.Image, board)
	}

	return unavailable(kind, "Juego no disponible")
}

func unavailable(kind, message string) *html.Node {
	return node.El(atom.Div,
		node.Attrs("class", "mini-game mini-game-unavailable", "data-game", kind),
		node.El(atom.P, nil, node.Text(message)),
	)
}

// QuizNode draws the quiz in its current state.
func QuizNode(quiz *Quiz) *html.Node {
	root := node.El(atom.Div, node.Attrs(
		"class", "mini-game mini-game-quiz",
		"data-game", string(KindQuiz),
		"data-state", string(quiz.State()),
	))

	if quiz.Finished() {
		summary := fmt.Sprintf("%d / %d", quiz.Score(), quiz.Total())
		return node.Append(root, node.El(atom.P, node.Attrs("class", "quiz-score"), node.Text(summary)))
	}

	question, _ := quiz.Current()
	if question.Prompt != "" {
		node.Append(root, node.El(atom.P, node.Attrs("class", "quiz-prompt"), node.Text(question.Prompt)))
	}

	options := node.Div("quiz-options")
	for i, option := range question.Options {
		button := node.El(atom.Button,
			node.Attrs("type", "button", "class", "quiz-option", "data-option", strconv.Itoa(i)),
			node.Text(option),
		)
		if quiz.State() == QuizAnswered {
			node.Set(button, "disabled", "disabled")
			if i == question.Answer {
				node.AddClass(button, "quiz-option-correct")
			}
		}
		node.Append(options, button)
	}
	node.Append(root, options)

	current, total := quiz.Position()
	progress := fmt.Sprintf("%d / %d", current, total)
	return node.Append(root, node.El(atom.P, node.Attrs("class", "quiz-progress"), node.Text(progress)))
}

// JigsawNode draws every piece on a board of the given size. Pieces carry no
// background when image is not an accepted URL.
func JigsawNode(jigsaw *Jigsaw, image string, board geom.Size) *html.Node {
	rows, cols := jigsaw.Grid()
	state := "playing"
	if jigsaw.Solved() {
		state = "solved"
	}

	root := node.El(atom.Div, node.Attrs(
		"class", "mini-game mini-game-jigsaw",
		"data-game", string(KindJigsaw),
		"data-state", state,
		"data-rows", strconv.Itoa(rows),
		"data-cols", strconv.Itoa(cols),
		"style", node.Style(
			"position: relative",
			px("width", board.Width),
			px("height", board.Height),
		),
	))

	var background, size string
	if imageURL, ok := theme.CSSURL(image); ok {
		background = "background-image: " + imageURL
		size = fmt.Sprintf("background-size: %dpx %dpx", board.Width, board.Height)
	}

	for _, rect := range jigsaw.Rects(board) {
		node.Append(root, node.El(atom.Div, node.Attrs(
			"class", "jigsaw-piece",
			"data-piece", strconv.Itoa(rect.Piece),
			"data-slot", strconv.Itoa(rect.Slot),
			"style", node.Style(
				"position: absolute",
				px("left", rect.Left),
				px("top", rect.Top),
				px("width", rect.Width),
				px("height", rect.Height),
				background,
				size,
				fmt.Sprintf("background-position: %dpx %dpx", rect.OffsetX, rect.OffsetY),
			),
		)))
	}
	return root
}

func px(property string, value int) string {
	return fmt.Sprintf("%s: %dpx", property, value)
}
