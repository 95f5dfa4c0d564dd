package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/room"
)

// maxPromptName is the longest name the prompt accepts; longer input is cut.
const maxPromptName = 63

type hunterEntry struct {
	Name string
	ID   int
}

// parseHunterFlag reads a --hunter value of the form name:id.
func parseHunterFlag(v string) (hunterEntry, error) {
	i := strings.LastIndex(v, ":")
	if i <= 0 || i == len(v)-1 {
		return hunterEntry{}, fmt.Errorf("hunter %q: want name:id", v)
	}
	id, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return hunterEntry{}, fmt.Errorf("hunter %q: bad id: %w", v, err)
	}
	return hunterEntry{Name: strings.TrimSpace(v[:i]), ID: id}, nil
}

// promptHunters asks for names and ids, one word at a time, until "done"
// or end of input.
func promptHunters(in io.Reader, out io.Writer) ([]hunterEntry, error) {
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)

	var hunters []hunterEntry
	fmt.Fprint(out, "Enter hunter name (max 63 characters) or 'done' to finish: ")
	for sc.Scan() {
		name := sc.Text()
		if name == "done" {
			break
		}
		name = room.TruncateName(name, maxPromptName)

		fmt.Fprint(out, "Enter hunter ID: ")
		if !sc.Scan() {
			return hunters, fmt.Errorf("hunter %s: missing id", name)
		}
		id, err := strconv.Atoi(sc.Text())
		if err != nil {
			return hunters, fmt.Errorf("hunter %s: bad id %q", name, sc.Text())
		}
		hunters = append(hunters, hunterEntry{Name: name, ID: id})

		fmt.Fprint(out, "\nEnter next hunter name (max 63 characters) or 'done' to finish: ")
	}
	fmt.Fprintln(out)

	if err := sc.Err(); err != nil {
		return hunters, err
	}
	if len(hunters) == 0 {
		return nil, errors.New("no hunters entered")
	}
	return hunters, nil
}
