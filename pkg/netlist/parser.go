package netlist

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/powerflow/internal/consts"
	"github.com/edp1096/powerflow/pkg/bus"
)

type UpdateRule string

const (
	RuleDirect   UpdateRule = "direct"   // V = S / conj(sum YV), the historical form
	RuleStandard UpdateRule = "standard" // V = (S/conj(V) - sum YV) / Yii
)

type Options struct {
	MaxIterations int
	Tolerance     float64
	Rule          UpdateRule
}

func DefaultOptions() Options {
	return Options{
		MaxIterations: consts.MAXITER,
		Tolerance:     consts.TOLERANCE,
		Rule:          RuleDirect,
	}
}

type CaseData struct {
	Title   string
	Buses   []bus.Bus
	Lines   []bus.Line
	Options Options
}

// Parse reads a power-flow case. First line is the title, "*" starts
// a comment, "+" continues the previous record, ".end" stops the
// scan.
func Parse(input string) (*CaseData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	caseData := &CaseData{Options: DefaultOptions()}

	// Title or comment
	if scanner.Scan() {
		caseData.Title = strings.TrimPrefix(scanner.Text(), "*")
		caseData.Title = strings.TrimSpace(caseData.Title)
	}

	lineNo := 1
	currentNo := 0
	var currentLine string

	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(caseData, currentLine, currentNo)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(line, "+") { // Line continue
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}

		// .end terminates the case, anything after it is ignored
		if strings.EqualFold(strings.Fields(line)[0], ".end") {
			return caseData, nil
		}

		currentLine = line
		currentNo = lineNo
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return caseData, nil
}

func parseLine(caseData *CaseData, line string, lineNo int) error {
	if strings.HasPrefix(line, ".") {
		return parseDotOperator(caseData, line, lineNo)
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "bus":
		b, err := parseBus(fields)
		if err != nil {
			return fmt.Errorf("line %d: %v", lineNo, err)
		}
		caseData.Buses = append(caseData.Buses, *b)

	case "line":
		l, err := parseBranch(fields)
		if err != nil {
			return fmt.Errorf("line %d: %v", lineNo, err)
		}
		caseData.Lines = append(caseData.Lines, *l)

	default:
		return fmt.Errorf("line %d: unknown record %q", lineNo, fields[0])
	}

	return nil
}

// bus <id> <slack|pv|pq> <P> <Q> <V> <angle-deg>
func parseBus(fields []string) (*bus.Bus, error) {
	if len(fields) != 7 {
		return nil, fmt.Errorf("bus record needs 6 fields (id type P Q V angle), got %d", len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid bus identifier %q", fields[1])
	}

	busType, err := bus.ParseType(fields[2])
	if err != nil {
		return nil, err
	}

	var values [4]float64
	names := []string{"P", "Q", "V", "angle"}
	for i := range values {
		values[i], err = strconv.ParseFloat(fields[3+i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q", names[i], fields[3+i])
		}
	}

	return &bus.Bus{
		ID:   id,
		Type: busType,
		P:    values[0],
		Q:    values[1],
		Vm:   values[2],
		Va:   values[3],
	}, nil
}

// line <from-id> <to-id> <R> <X> <B>
func parseBranch(fields []string) (*bus.Line, error) {
	if len(fields) != 6 {
		return nil, fmt.Errorf("line record needs 5 fields (from to R X B), got %d", len(fields)-1)
	}

	from, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid from bus %q", fields[1])
	}
	to, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("invalid to bus %q", fields[2])
	}

	var values [3]float64
	names := []string{"R", "X", "B"}
	for i := range values {
		values[i], err = strconv.ParseFloat(fields[3+i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q", names[i], fields[3+i])
		}
	}

	return &bus.Line{
		From: from,
		To:   to,
		R:    values[0],
		X:    values[1],
		B:    values[2],
	}, nil
}

func parseDotOperator(caseData *CaseData, line string, lineNo int) error {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".option", ".options":
		for _, field := range fields[1:] {
			pair := strings.SplitN(field, "=", 2)
			if len(pair) != 2 {
				return fmt.Errorf("line %d: invalid option %q", lineNo, field)
			}

			switch strings.ToLower(pair[0]) {
			case "maxiter":
				n, err := strconv.Atoi(pair[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("line %d: invalid maxiter %q", lineNo, pair[1])
				}
				caseData.Options.MaxIterations = n

			case "tol":
				eps, err := strconv.ParseFloat(pair[1], 64)
				if err != nil || eps <= 0 {
					return fmt.Errorf("line %d: invalid tol %q", lineNo, pair[1])
				}
				caseData.Options.Tolerance = eps

			case "rule":
				switch UpdateRule(strings.ToLower(pair[1])) {
				case RuleDirect:
					caseData.Options.Rule = RuleDirect
				case RuleStandard:
					caseData.Options.Rule = RuleStandard
				default:
					return fmt.Errorf("line %d: unknown rule %q", lineNo, pair[1])
				}

			default:
				return fmt.Errorf("line %d: unknown option %q", lineNo, pair[0])
			}
		}

	default:
		return fmt.Errorf("line %d: unknown directive %q", lineNo, fields[0])
	}

	return nil
}
