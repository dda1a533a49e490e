package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/bodykeeper/internal/client/bodyfat"
	"github.com/dmitrijs2005/bodykeeper/internal/client/models"
	"github.com/dmitrijs2005/bodykeeper/internal/client/services"
	"github.com/dmitrijs2005/bodykeeper/internal/common"
)

const (
	defaultHistoryLimit = 10
	minIDPrefix         = 4
)

var units = map[models.System]map[string]string{
	models.SystemMetric: {
		bodyfat.Weight: "kg", bodyfat.Height: "cm", bodyfat.Waist: "cm",
		bodyfat.Neck: "cm", bodyfat.Hip: "cm", bodyfat.Age: "years",
	},
	models.SystemImperial: {
		bodyfat.Weight: "lb", bodyfat.Height: "in", bodyfat.Waist: "in",
		bodyfat.Neck: "in", bodyfat.Hip: "in", bodyfat.Age: "years",
	},
}

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return err
}

// argOrPrompt returns args[0] or asks for it.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	v, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: empty input", common.ErrorValidation)
	}
	return v, nil
}

// resolveID expands a unique prefix of an active record id, as printed by
// list, to the full id. Unknown ids are returned unchanged.
func (a *App) resolveID(ctx context.Context, s string) (string, error) {
	if len(s) < minIDPrefix {
		return s, nil
	}
	list, err := a.service.List(ctx)
	if err != nil {
		return "", err
	}

	var match string
	for _, m := range list {
		if m.ClientID == s {
			return s, nil
		}
		if strings.HasPrefix(m.ClientID, s) {
			if match != "" {
				return "", fmt.Errorf("%w: id prefix %q is ambiguous", common.ErrorValidation, s)
			}
			match = m.ClientID
		}
	}
	if match == "" {
		return s, nil
	}
	return match, nil
}

func (a *App) idArg(ctx context.Context, args []string, prompt string) (string, error) {
	raw, err := a.argOrPrompt(args, prompt)
	if err != nil {
		return "", err
	}
	return a.resolveID(ctx, raw)
}

func (a *App) askInputs(f models.Formula, g models.Gender, sys models.System) (map[string]float64, error) {
	in := make(map[string]float64)
	for _, k := range bodyfat.RequiredInputs(f, g) {
		v, err := GetPositiveFloat(a.reader, fmt.Sprintf("Enter %s (%s)", k, units[sys][k]), a.out)
		if err != nil {
			return nil, err
		}
		in[k] = v
	}

	if _, ok := in[bodyfat.Weight]; ok {
		return in, nil
	}
	// Weight is optional for formulas that do not need it; it adds masses.
	w, err := GetSimpleText(a.reader, fmt.Sprintf("Enter weight (%s), empty to skip", units[sys][bodyfat.Weight]), a.out)
	if err != nil {
		return nil, err
	}
	if w != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(w, ",", "."), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: weight must be a positive number", common.ErrorValidation)
		}
		in[bodyfat.Weight] = v
	}
	return in, nil
}

func (a *App) Add(ctx context.Context) error {
	formula, err := GetChoice(a.reader, "Formula", a.out, []string{string(models.FormulaNavy), string(models.FormulaBMI)}, string(models.FormulaNavy))
	if err != nil {
		return a.fail(err)
	}
	gender, err := GetChoice(a.reader, "Gender", a.out, []string{string(models.GenderMale), string(models.GenderFemale)}, "")
	if err != nil {
		return a.fail(err)
	}
	system, err := GetChoice(a.reader, "Units", a.out, []string{string(models.SystemMetric), string(models.SystemImperial)}, string(models.SystemMetric))
	if err != nil {
		return a.fail(err)
	}

	nm := services.NewMeasurement{
		Formula: models.Formula(formula),
		Gender:  models.Gender(gender),
		System:  models.System(system),
	}
	if nm.Inputs, err = a.askInputs(nm.Formula, nm.Gender, nm.System); err != nil {
		return a.fail(err)
	}

	m, err := a.service.Add(ctx, nm)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Added %s: body fat %.1f%% (%s)\n", m.ClientID, m.Results.BodyFatPercentage, m.Classification)
	return nil
}

func (a *App) List(ctx context.Context) error {
	list, err := a.service.List(ctx)
	if err != nil {
		return a.fail(err)
	}
	printList(a.out, list)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.idArg(ctx, args, "Enter record id to show")
	if err != nil {
		return a.fail(err)
	}
	m, err := a.service.Get(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	printDetails(a.out, m)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.idArg(ctx, args, "Enter record id to delete")
	if err != nil {
		return a.fail(err)
	}
	if err := a.service.Delete(ctx, id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

func (a *App) Photo(ctx context.Context, args []string) error {
	id, err := a.idArg(ctx, args, "Enter record id")
	if err != nil {
		return a.fail(err)
	}
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	path, err := a.argOrPrompt(rest, "Enter photo file path")
	if err != nil {
		return a.fail(err)
	}
	if err := a.service.AttachPhoto(ctx, id, path); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Photo attached to %s\n", id)
	return nil
}

func (a *App) Unphoto(ctx context.Context, args []string) error {
	id, err := a.idArg(ctx, args, "Enter record id")
	if err != nil {
		return a.fail(err)
	}
	if err := a.service.DetachPhoto(ctx, id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Photo removed from %s\n", id)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	res, err := a.service.SyncNow(ctx)
	if errors.Is(err, common.ErrCloudSyncDisabled) {
		fmt.Fprintln(a.out, "Cloud sync is off, turn it on with 'cloud on'")
		return err
	}
	if err != nil {
		return a.fail(err)
	}
	printResult(a.out, res)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.service.Status(ctx)
	if err != nil {
		return a.fail(err)
	}
	printStatus(a.out, st, a.getMode())
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return a.fail(fmt.Errorf("%w: history limit must be a positive integer", common.ErrorValidation))
		}
		limit = n
	}

	passes, err := a.service.History(ctx, limit)
	if err != nil {
		return a.fail(err)
	}
	printHistory(a.out, passes)
	return nil
}

func (a *App) Cloud(ctx context.Context, args []string) error {
	if len(args) == 0 {
		enabled, err := a.service.CloudSyncEnabled(ctx)
		if err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(a.out, "Cloud sync is %s\n", onOff(enabled))
		return nil
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on":
		enabled = true
	case "off":
	default:
		return a.fail(fmt.Errorf("%w: usage: cloud on|off", common.ErrorValidation))
	}

	if err := a.service.SetCloudSync(ctx, enabled); err != nil {
		return a.fail(err)
	}
	if enabled {
		a.checkAvailability(ctx)
	} else {
		a.setMode(ctx, ModeDisabled)
	}
	fmt.Fprintf(a.out, "Cloud sync is %s\n", onOff(enabled))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
