// nsadm is an admin tool for nested-set trees: create and move nodes,
// delete and restore subtrees, print the tree, and check or rebuild the
// bound numbering.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/treebank/nestset/models"
	"github.com/treebank/nestset/tree"
	"github.com/treebank/nestset/util/dbutil"
)

func main() {
	app := cli.NewApp()
	app.Name = "nsadm"
	app.Usage = "nested-set tree administration"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db-url",
			Value:   "sqlite://./nestset.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.IntFlag{
			Name:  "max-db-connections",
			Value: 40,
		},
	}
	app.Commands = []*cli.Command{
		initCmd,
		addCmd,
		mvCmd,
		rmCmd,
		restoreCmd,
		lsCmd,
		checkCmd,
		fixCmd,
	}

	app.RunAndExitOnError()
}

func getTree(cctx *cli.Context) (*tree.Tree, error) {
	if _, err := dbutil.SetupSlog(cctx.String("log-level")); err != nil {
		return nil, err
	}
	db, err := dbutil.SetupDatabase(cctx.String("db-url"), cctx.Int("max-db-connections"))
	if err != nil {
		return nil, err
	}
	return tree.New(db), nil
}

func findNode(ctx context.Context, t *tree.Tree, name string) (*models.Node, error) {
	n, err := t.Query(tree.WithDeleted()).ByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no node named %q", name)
	}
	return n, err
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "create or migrate the tree table",
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		return t.Migrate(cctx.Context)
	},
}

var addCmd = &cli.Command{
	Name:      "add",
	Usage:     "create a node; with no placement flag it becomes a root",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "parent", Usage: "append under this node"},
		&cli.StringFlag{Name: "before", Usage: "insert before this node"},
		&cli.StringFlag{Name: "after", Usage: "insert after this node"},
		&cli.BoolFlag{Name: "first", Usage: "with --parent, prepend instead of append"},
	},
	Action: func(cctx *cli.Context) error {
		name := cctx.Args().First()
		if name == "" {
			return fmt.Errorf("must provide a node name")
		}
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		n := &models.Node{Name: name}
		if err := place(cctx, t, n); err != nil {
			return err
		}
		if _, err := t.Save(cctx.Context, n); err != nil {
			return err
		}
		fmt.Printf("created node %d (%d,%d)\n", n.ID, n.Lft, n.Rgt)
		return nil
	},
}

var mvCmd = &cli.Command{
	Name:      "mv",
	Usage:     "move a node (and its subtree) to a new position",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "parent", Usage: "append under this node"},
		&cli.StringFlag{Name: "before", Usage: "move before this node"},
		&cli.StringFlag{Name: "after", Usage: "move after this node"},
		&cli.BoolFlag{Name: "first", Usage: "with --parent, prepend instead of append"},
		&cli.BoolFlag{Name: "root", Usage: "make the node a root"},
	},
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		n, err := findNode(cctx.Context, t, cctx.Args().First())
		if err != nil {
			return err
		}
		if cctx.Bool("root") {
			n.AsRoot()
		} else if err := place(cctx, t, n); err != nil {
			return err
		}
		if !n.HasPending() {
			return fmt.Errorf("must provide a placement flag")
		}
		moved, err := t.Save(cctx.Context, n)
		if err != nil {
			return err
		}
		if !moved {
			fmt.Println("nothing to do")
		}
		return nil
	},
}

// place buffers the structural intent described by the shared placement
// flags, if any were given.
func place(cctx *cli.Context, t *tree.Tree, n *models.Node) error {
	ctx := cctx.Context
	switch {
	case cctx.String("parent") != "":
		p, err := findNode(ctx, t, cctx.String("parent"))
		if err != nil {
			return err
		}
		if cctx.Bool("first") {
			n.PrependTo(p)
		} else {
			n.AppendTo(p)
		}
	case cctx.String("before") != "":
		ref, err := findNode(ctx, t, cctx.String("before"))
		if err != nil {
			return err
		}
		n.PlaceBefore(ref)
	case cctx.String("after") != "":
		ref, err := findNode(ctx, t, cctx.String("after"))
		if err != nil {
			return err
		}
		n.PlaceAfter(ref)
	}
	return nil
}

var rmCmd = &cli.Command{
	Name:      "rm",
	Usage:     "delete a node and its whole subtree",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "remove rows and close the gap even with soft-delete on"},
	},
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		n, err := findNode(cctx.Context, t, cctx.Args().First())
		if err != nil {
			return err
		}
		if cctx.Bool("force") {
			return t.ForceDelete(cctx.Context, n)
		}
		return t.Delete(cctx.Context, n)
	},
}

var restoreCmd = &cli.Command{
	Name:      "restore",
	Usage:     "bring back a soft-deleted subtree",
	ArgsUsage: "<name>",
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		n, err := findNode(cctx.Context, t, cctx.Args().First())
		if err != nil {
			return err
		}
		return t.Restore(cctx.Context, n)
	},
}

var lsCmd = &cli.Command{
	Name:  "ls",
	Usage: "print the tree in traversal order",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "all", Usage: "include soft-deleted nodes"},
		&cli.BoolFlag{Name: "bounds", Usage: "show lft/rgt values"},
	},
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		var opts []tree.QueryOption
		if cctx.Bool("all") {
			opts = append(opts, tree.WithDeleted())
		}
		nodes, err := t.Query(opts...).All(cctx.Context)
		if err != nil {
			return err
		}
		// depth from the stack of enclosing rgt values
		var stack []int
		for _, n := range nodes {
			for len(stack) > 0 && stack[len(stack)-1] < n.Lft {
				stack = stack[:len(stack)-1]
			}
			line := strings.Repeat("  ", len(stack)) + n.Name
			if n.DeletedAt.Valid {
				line += " (deleted)"
			}
			if cctx.Bool("bounds") {
				line += fmt.Sprintf(" [%d,%d]", n.Lft, n.Rgt)
			}
			fmt.Println(line)
			stack = append(stack, n.Rgt)
		}
		return nil
	},
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "report bound consistency error counts",
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		counts, err := t.Query().CountErrors(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Println(counts)
		if counts.Total() > 0 {
			return fmt.Errorf("tree has %d consistency errors", counts.Total())
		}
		return nil
	},
}

var fixCmd = &cli.Command{
	Name:  "fix",
	Usage: "rebuild all bounds from the parent references",
	Action: func(cctx *cli.Context) error {
		t, err := getTree(cctx)
		if err != nil {
			return err
		}
		return t.FixTree(cctx.Context)
	},
}
