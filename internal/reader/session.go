// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dast-sv/lectoflip/internal/core/book"
	"github.com/dast-sv/lectoflip/internal/flipbook/game"
	"github.com/dast-sv/lectoflip/internal/flipbook/geom"
	"github.com/dast-sv/lectoflip/internal/flipbook/node"
	"github.com/dast-sv/lectoflip/internal/flipbook/page"
	"github.com/dast-sv/lectoflip/internal/flipbook/render"
	"github.com/dast-sv/lectoflip/internal/flipbook/viewport"
)

// # Protocol

// Client message types.
const (
	MessageNext     = "next"
	MessagePrev     = "prev"
	MessageFlip     = "flip"
	MessageResize   = "resize"
	MessageAnswer   = "answer"
	MessageContinue = "continue"
	MessagePlace    = "place"
)

// Server reply types.
const (
	ReplyState   = "state"
	ReplyFlipped = "flipped"
	ReplyGame    = "game"
	ReplyError   = "error"
)

// Message is one client request. Page is a 0-based index: the flip target, or the
// page whose game receives the move.
type Message struct {
	Type   string `json:"type"`
	Page   int    `json:"page"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Option int    `json:"option,omitempty"`
	Piece  int    `json:"piece,omitempty"`
	Slot   int    `json:"slot,omitempty"`
}

// Reply is one server message.
type Reply struct {
	Type  string              `json:"type"`
	State *State              `json:"state,omitempty"`
	Flip  *viewport.FlipEvent `json:"flip,omitempty"`
	Game  *GameState          `json:"game,omitempty"`
	Error string              `json:"error,omitempty"`
}

// State is the rendered viewport after a request.
type State struct {
	Current   int           `json:"current"`
	PageCount int           `json:"pageCount"`
	Mode      viewport.Mode `json:"mode"`
	EngineKey string        `json:"engineKey"`
	Remounted bool          `json:"remounted"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Active    []int         `json:"active"`
	HTML      string        `json:"html"`
}

// GameState is a mini-game after a move.
type GameState struct {
	Page    int       `json:"page"`
	Kind    game.Kind `json:"kind"`
	Correct *bool     `json:"correct,omitempty"`
	Score   int       `json:"score,omitempty"`
	Total   int       `json:"total,omitempty"`
	Moves   int       `json:"moves,omitempty"`
	Solved  bool      `json:"solved,omitempty"`
	Done    bool      `json:"done"`
	HTML    string    `json:"html"`
}

// # Session

// Session drives one reader's viewport. It is not safe for concurrent use; the
// websocket loop feeds it one message at a time, so flips stay in arrival order.
type Session struct {
	book     *book.Book
	view     *viewport.Viewport
	renderer *render.Renderer
	quizzes  map[int]*game.Quiz
	jigsaws  map[int]*game.Jigsaw
	flips    []viewport.FlipEvent
}

// NewSession opens b at the 0-based start page for a viewport of width×height.
func NewSession(b *book.Book, renderer *render.Renderer, width, height, start int) *Session {
	session := &Session{
		book:     b,
		renderer: renderer,
		view: viewport.New(b.Pages, viewport.ReaderProfile,
			viewport.WithViewportSize(width, height),
			viewport.WithStartPage(start),
		),
		quizzes: make(map[int]*game.Quiz),
		jigsaws: make(map[int]*game.Jigsaw),
	}
	session.view.OnFlip(func(event viewport.FlipEvent) {
		session.flips = append(session.flips, event)
	})
	return session
}

// Viewport exposes the driven viewport.
func (session *Session) Viewport() *viewport.Viewport { return session.view }

/*
Handle applies one message and returns the replies to send, in order.

Description: Navigation replies with one "flipped" per completed flip followed by the
new "state". Boundary moves are no-ops that still report the state. Game moves reply
with "game". Rejected requests reply with a single "error".
*/
func (session *Session) Handle(message Message) []Reply {
	switch message.Type {
	case MessageNext:
		_, err := session.view.Next()
		return session.navigation(err, false)

	case MessagePrev:
		_, err := session.view.Prev()
		return session.navigation(err, false)

	case MessageFlip:
		_, err := session.view.Flip(message.Page)
		return session.navigation(err, false)

	case MessageResize:
		if message.Width <= 0 || message.Height <= 0 {
			return []Reply{errorReply("resize needs a positive width and height")}
		}
		remounted := session.view.Resize(message.Width, message.Height)
		return session.navigation(nil, remounted)

	case MessageAnswer, MessageContinue, MessagePlace:
		state, err := session.play(message)
		if err != nil {
			return []Reply{errorReply(err.Error())}
		}
		return []Reply{{Type: ReplyGame, Game: state}}
	}

	return []Reply{errorReply(fmt.Sprintf("unknown message type %q", message.Type))}
}

// Snapshot renders the current state. Games already played in this session are drawn
// as they stand, not in their initial state.
func (session *Session) Snapshot(remounted bool) (Reply, error) {
	widget, err := session.view.Render(session.renderer)
	if err != nil {
		return Reply{}, err
	}
	if widget != nil {
		session.drawLiveGames(widget)
	}

	size := session.view.Size()
	return Reply{Type: ReplyState, State: &State{
		Current:   session.view.Current(),
		PageCount: session.view.PageCount(),
		Mode:      session.view.Mode(),
		EngineKey: session.view.EngineKey(),
		Remounted: remounted,
		Width:     size.Width,
		Height:    size.Height,
		Active:    session.view.ActivePages(),
		HTML:      node.Render(widget),
	}}, nil
}

func (session *Session) navigation(err error, remounted bool) []Reply {
	if err != nil {
		session.flips = nil
		return []Reply{errorReply(err.Error())}
	}

	replies := make([]Reply, 0, len(session.flips)+1)
	for i := range session.flips {
		replies = append(replies, Reply{Type: ReplyFlipped, Flip: &session.flips[i]})
	}
	session.flips = nil

	snapshot, err := session.Snapshot(remounted)
	if err != nil {
		return append(replies, errorReply(err.Error()))
	}
	return append(replies, snapshot)
}

// # Mini-Games

var errNoGame = errors.New("page has no game of that kind")

func (session *Session) play(message Message) (*GameState, error) {
	if message.Page < 0 || message.Page >= len(session.book.Pages) {
		return nil, fmt.Errorf("%w: page %d", viewport.ErrPageOutOfRange, message.Page)
	}
	p := session.book.Pages[message.Page]
	kind, _ := game.ParseKind(p.InteractiveGame)

	switch message.Type {
	case MessageAnswer, MessageContinue:
		if kind != game.KindQuiz {
			return nil, errNoGame
		}
		quiz, err := session.quiz(message.Page, p)
		if err != nil {
			return nil, err
		}

		state := &GameState{Page: message.Page, Kind: game.KindQuiz}
		if message.Type == MessageAnswer {
			correct, err := quiz.Answer(message.Option)
			if err != nil {
				return nil, err
			}
			state.Correct = &correct
		} else if err := quiz.Next(); err != nil {
			return nil, err
		}

		state.Score, state.Total = quiz.Score(), quiz.Total()
		state.Done = quiz.Finished()
		state.HTML = node.Render(game.QuizNode(quiz))
		return state, nil

	default:
		if kind != game.KindJigsaw {
			return nil, errNoGame
		}
		jigsaw, err := session.jigsaw(message.Page, p)
		if err != nil {
			return nil, err
		}
		if err := jigsaw.Place(message.Piece, message.Slot); err != nil {
			return nil, err
		}

		return &GameState{
			Page:   message.Page,
			Kind:   game.KindJigsaw,
			Moves:  jigsaw.Moves(),
			Solved: jigsaw.Solved(),
			Done:   jigsaw.Solved(),
			HTML:   node.Render(game.JigsawNode(jigsaw, p.Image, session.board())),
		}, nil
	}
}

func (session *Session) board() geom.Size {
	return game.BoardSize(session.view.Size(), 0)
}

// drawLiveGames swaps the embedded game of every page with a session game for the
// game's current state.
func (session *Session) drawLiveGames(widget *html.Node) {
	if len(session.quizzes) == 0 && len(session.jigsaws) == 0 {
		return
	}

	for _, slot := range node.Find(widget, node.ByClass("flip-page")) {
		index, err := strconv.Atoi(node.Get(slot, "data-index"))
		if err != nil {
			continue
		}

		var live *html.Node
		if quiz, ok := session.quizzes[index]; ok {
			live = game.QuizNode(quiz)
		} else if jigsaw, ok := session.jigsaws[index]; ok {
			live = game.JigsawNode(jigsaw, session.book.Pages[index].Image, session.board())
		} else {
			continue
		}

		for _, embedded := range node.Find(slot, node.ByClass("mini-game")) {
			if embedded.Parent == nil {
				continue
			}
			embedded.Parent.InsertBefore(live, embedded)
			embedded.Parent.RemoveChild(embedded)
			break
		}
	}
}

func (session *Session) quiz(index int, p page.Page) (*game.Quiz, error) {
	if quiz, ok := session.quizzes[index]; ok {
		return quiz, nil
	}
	quiz, err := game.NewQuizFor(game.Input{Image: p.Image, Items: p.Items})
	if err != nil {
		return nil, err
	}
	session.quizzes[index] = quiz
	return quiz, nil
}

func (session *Session) jigsaw(index int, p page.Page) (*game.Jigsaw, error) {
	if jigsaw, ok := session.jigsaws[index]; ok {
		return jigsaw, nil
	}
	jigsaw, err := game.NewJigsawFor(game.Input{Image: p.Image, Items: p.Items})
	if err != nil {
		return nil, err
	}
	session.jigsaws[index] = jigsaw
	return jigsaw, nil
}

func errorReply(message string) Reply {
	return Reply{Type: ReplyError, Error: message}
}
