package cli

import (
	"errors"

	"github.com/julianstephens/weighbit/internal/tracker"
)

type UndoCmd struct {
	List bool `help:"Show the undo history instead of undoing."`
}

func (c *UndoCmd) Run(ctx *Context) error {
	if c.List {
		history := ctx.Tracker.UndoHistory()
		if len(history) == 0 {
			ctx.println("Nothing to undo.")
			return nil
		}
		for i, e := range history {
			ctx.printf("%2d. %s %s\n", i+1, e.Label, mutedStyle.Render(e.At.Local().Format("2006-01-02 15:04")))
		}
		return nil
	}

	label, err := ctx.Tracker.Undo()
	if errors.Is(err, tracker.ErrNothingToUndo) {
		ctx.println("Nothing to undo.")
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("%s Undid %s\n", okStyle.Render("✓"), label)
	return nil
}
