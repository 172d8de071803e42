package command

import (
	"errors"
	"fmt"
	"strings"
)

// TaskIDLen is the fixed on-wire width of a task identifier.
const TaskIDLen = 8

var (
	ErrEmptyTaskID    = errors.New("command: empty task id")
	ErrEmptyImagePath = errors.New("command: empty image path")
	ErrEmptySymbol    = errors.New("command: empty symbol name")
)

// Kind discriminates the closed set of supervisor commands.
type Kind int

const (
	KindLoad Kind = iota
	KindKill
	KindRelaunch
	KindList
	KindLogAttach
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindKill:
		return "kill"
	case KindRelaunch:
		return "relaunch"
	case KindList:
		return "list"
	case KindLogAttach:
		return "log"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TaskID is a task identifier in canonical on-wire form: exactly 8 bytes,
// truncated if the source text is longer, right-padded with ASCII spaces
// if shorter.
type TaskID [TaskIDLen]byte

// NewTaskID canonicalizes free-form text into a TaskID.
func NewTaskID(raw string) (TaskID, error) {
	if strings.TrimSpace(raw) == "" {
		return TaskID{}, ErrEmptyTaskID
	}
	var id TaskID
	for i := range id {
		id[i] = ' '
	}
	copy(id[:], raw)
	return id, nil
}

func (id TaskID) String() string {
	return strings.TrimRight(string(id[:]), " ")
}

// Command is one validated supervisor command. Load carries the image and
// symbol fields; Kill and Relaunch carry only the task id; List and
// LogAttach carry nothing.
type Command struct {
	Kind       Kind
	TaskID     TaskID
	ImagePath  string
	SymbolName string
}

// NewLoad builds a Load command.
func NewLoad(imagePath, symbolName, rawID string) (Command, error) {
	if strings.TrimSpace(imagePath) == "" {
		return Command{}, ErrEmptyImagePath
	}
	if strings.TrimSpace(symbolName) == "" {
		return Command{}, ErrEmptySymbol
	}
	id, err := NewTaskID(rawID)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindLoad, TaskID: id, ImagePath: imagePath, SymbolName: symbolName}, nil
}

// NewKill builds a Kill command.
func NewKill(rawID string) (Command, error) {
	id, err := NewTaskID(rawID)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindKill, TaskID: id}, nil
}

// NewRelaunch builds a Relaunch command.
func NewRelaunch(rawID string) (Command, error) {
	id, err := NewTaskID(rawID)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindRelaunch, TaskID: id}, nil
}

// NewList builds a List command.
func NewList() Command {
	return Command{Kind: KindList}
}

// NewLogAttach builds a LogAttach command. It produces no frame; the
// dispatcher only keeps the drain alive.
func NewLogAttach() Command {
	return Command{Kind: KindLogAttach}
}

func (c Command) Validate() error {
	switch c.Kind {
	case KindLoad:
		if strings.TrimSpace(c.ImagePath) == "" {
			return ErrEmptyImagePath
		}
		if strings.TrimSpace(c.SymbolName) == "" {
			return ErrEmptySymbol
		}
		fallthrough
	case KindKill, KindRelaunch:
		if c.TaskID == (TaskID{}) {
			return ErrEmptyTaskID
		}
		return nil
	case KindList, KindLogAttach:
		return nil
	default:
		return fmt.Errorf("command: unknown kind %d", int(c.Kind))
	}
}
