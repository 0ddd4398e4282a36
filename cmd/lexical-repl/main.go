package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/codesandbox/lexical"
	"github.com/ergochat/readline"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("tree"),
	readline.PcItem("content"),
	readline.PcItem("selection"),
	readline.PcItem("dir"),

	readline.PcItem("para"),
	readline.PcItem("text"),
	readline.PcItem("br"),
	readline.PcItem("remove"),
	readline.PcItem("clear"),
	readline.PcItem("select"),
	readline.PcItem("dump"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

var ErrBadArgs = errors.New("bad arguments, see help")

const help = `
tree                    print the node tree
content [key]           plain-text content of a node (default: root)
selection               show the current selection
dir <key>               show a node's direction

para [parent]           append a new paragraph (default parent: root)
text <parent> <text..>  append a text leaf
br <parent>             append a line break
remove <key>            remove a node and its subtree
clear <key>             remove all children of an element
select <key> [a [b]]    select inside an element
dump <file>             write the document as a TLV stream

exit | quit
`

func parseKey(arg string) (lexical.NodeKey, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return lexical.NullKey, ErrBadArgs
	}
	return lexical.NodeKey(n), nil
}

func elementArg(u *lexical.Update, args []string, doc *lexical.Document) (*lexical.ElementNode, error) {
	if len(args) == 0 {
		return doc.Root(), nil
	}
	key, err := parseKey(args[0])
	if err != nil {
		return nil, err
	}
	el, ok := lexical.AsElement(u.NodeByKey(key))
	if !ok {
		return nil, ErrBadArgs
	}
	return el, nil
}

func printTree(doc *lexical.Document, n lexical.Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch node := n.(type) {
	case *lexical.TextNode:
		fmt.Printf("%s#%s text %q\n", pad, n.Key(), node.Text())
	case *lexical.LineBreakNode:
		fmt.Printf("%s#%s linebreak\n", pad, n.Key())
	case *lexical.ParagraphNode:
		fmt.Printf("%s#%s paragraph dir=%q\n", pad, n.Key(), node.Direction().String())
		for _, child := range node.Children() {
			printTree(doc, child, depth+1)
		}
	case *lexical.ElementNode:
		fmt.Printf("%s#%s element dir=%q\n", pad, n.Key(), node.Direction().String())
		for _, child := range node.Children() {
			printTree(doc, child, depth+1)
		}
	}
}

func run(doc *lexical.Document, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Print(help)
		return nil

	case "tree":
		printTree(doc, doc.Root(), 0)
		return nil

	case "content":
		key := doc.Root().Key()
		if len(args) > 0 {
			k, err := parseKey(args[0])
			if err != nil {
				return err
			}
			key = k
		}
		n := doc.NodeByKey(key)
		if n == nil {
			return ErrBadArgs
		}
		fmt.Printf("%q\n", n.TextContent(false, false))
		return nil

	case "selection":
		sel := doc.Selection()
		if sel == nil {
			fmt.Println("no selection")
			return nil
		}
		fmt.Printf("anchor #%s:%d (%c)  focus #%s:%d (%c)  collapsed=%v\n",
			sel.Anchor.Key, sel.Anchor.Offset, sel.Anchor.Type,
			sel.Focus.Key, sel.Focus.Offset, sel.Focus.Type,
			sel.IsCollapsed())
		return nil

	case "dir":
		if len(args) < 1 {
			return ErrBadArgs
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		n := doc.NodeByKey(key)
		if n == nil {
			return ErrBadArgs
		}
		if el, ok := lexical.AsElement(n); ok {
			fmt.Printf("%q\n", el.Direction().String())
		}
		return nil

	case "para":
		return doc.Update(func(u *lexical.Update) error {
			parent, err := elementArg(u, args, doc)
			if err != nil {
				return err
			}
			p, err := lexical.NewParagraphNode(u)
			if err != nil {
				return err
			}
			if err = parent.Append(u, p); err != nil {
				return err
			}
			fmt.Printf("#%s\n", p.Key())
			return nil
		})

	case "text":
		if len(args) < 2 {
			return ErrBadArgs
		}
		return doc.Update(func(u *lexical.Update) error {
			parent, err := elementArg(u, args[:1], doc)
			if err != nil {
				return err
			}
			tn, err := lexical.NewTextNode(u, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if err = parent.Append(u, tn); err != nil {
				return err
			}
			fmt.Printf("#%s\n", tn.Key())
			return nil
		})

	case "br":
		if len(args) < 1 {
			return ErrBadArgs
		}
		return doc.Update(func(u *lexical.Update) error {
			parent, err := elementArg(u, args, doc)
			if err != nil {
				return err
			}
			br, err := lexical.NewLineBreakNode(u)
			if err != nil {
				return err
			}
			if err = parent.Append(u, br); err != nil {
				return err
			}
			fmt.Printf("#%s\n", br.Key())
			return nil
		})

	case "remove":
		if len(args) < 1 {
			return ErrBadArgs
		}
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		return doc.Update(func(u *lexical.Update) error {
			n := u.NodeByKey(key)
			if n == nil {
				return ErrBadArgs
			}
			return u.Remove(n)
		})

	case "clear":
		if len(args) < 1 {
			return ErrBadArgs
		}
		return doc.Update(func(u *lexical.Update) error {
			el, err := elementArg(u, args, doc)
			if err != nil {
				return err
			}
			return el.Clear(u)
		})

	case "select":
		if len(args) < 1 {
			return ErrBadArgs
		}
		var offsets []int
		for _, arg := range args[1:] {
			off, err := strconv.Atoi(arg)
			if err != nil {
				return ErrBadArgs
			}
			offsets = append(offsets, off)
		}
		return doc.Update(func(u *lexical.Update) error {
			el, err := elementArg(u, args, doc)
			if err != nil {
				return err
			}
			_, err = el.Select(u, offsets...)
			return err
		})

	case "dump":
		if len(args) < 1 {
			return ErrBadArgs
		}
		blob := lexical.EncodeDocument(doc)
		if err := os.WriteFile(args[0], blob, 0644); err != nil {
			return err
		}
		fmt.Printf("%d bytes\n", len(blob))
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	var doc *lexical.Document
	var err error
	if len(os.Args) > 1 {
		store, err := lexical.OpenStore(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		defer store.Close()
		doc, err = lexical.LoadDocument(store, lexical.Options{})
		if err != nil {
			doc, err = lexical.NewDocument(lexical.Options{Store: store})
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	} else if doc, err = lexical.NewDocument(lexical.Options{}); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     ".lexical_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			break
		}
		if err = run(doc, line); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
}
