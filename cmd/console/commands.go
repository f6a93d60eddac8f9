package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnavshah/staffmonitr-go/internal/console"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (c *cli) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.app.Session.Login(cmd.Context(), email, password) {
				return errors.New(c.app.Session.State().Error)
			}
			staff := c.app.Session.State().CurrentStaff
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s) in %s\n", staff.FullName, staff.Role, c.app.Selector.Selected().Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) signupCommand() *cobra.Command {
	var payload models.SignupPayload
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a workspace and its owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.app.Session.Signup(cmd.Context(), payload) {
				return errors.New(c.app.Session.State().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s created\n", c.app.Selector.Selected().Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.FullName, "name", "", "your full name")
	cmd.Flags().StringVar(&payload.Email, "email", "", "account email")
	cmd.Flags().StringVar(&payload.Password, "password", "", "account password")
	cmd.Flags().StringVar(&payload.AccountName, "account-name", "", "workspace name")
	cmd.Flags().StringVar(&payload.Company, "company", "", "company name")
	cmd.Flags().StringVar(&payload.Timezone, "timezone", "", "workspace timezone")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in staff member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			staff := c.app.Session.State().CurrentStaff
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nrole: %s\naccount: %s\n",
				staff.FullName, staff.Email, staff.Role, c.app.Selector.Selected().Name)
			return nil
		},
	}
}

func (c *cli) accountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the account groups available to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected := c.app.Selector.Selected().ID
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "\tID\tNAME\tTIMEZONE")
			for _, a := range c.app.Selector.Accounts() {
				marker := ""
				if a.ID == selected {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, a.ID, a.Name, a.Timezone)
			}
			return w.Flush()
		},
	}
}

func (c *cli) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show shift, kid and ratio counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.app.Console.LoadDashboard(cmd.Context())
			if err != nil {
				return err
			}
			insights := c.app.Console.Insights()
			lat, lon := c.app.Console.SimulatedPosition()
			onsite := c.app.Console.OnSite(&lat, &lon)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, c.app.Selector.Selected().Name)
			fmt.Fprintf(out, "Scheduled shifts: %d\n", stats.TotalShifts)
			fmt.Fprintf(out, "Kids: %d\n", stats.TotalKids)
			fmt.Fprintf(out, "Ratio met: %d/%d\n", stats.RatioMet, stats.TotalShifts)
			fmt.Fprintf(out, "Fairness: %.1f%%\n", insights.FairnessScore)
			for _, conflict := range insights.Conflicts {
				fmt.Fprintf(out, "Double booking: %s on %s and %s\n", conflict.StaffID, conflict.ShiftA, conflict.ShiftB)
			}
			fmt.Fprintf(out, "Geofence: %s\n", onsite.Reason)
			return nil
		},
	}
}

func (c *cli) calendarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List shifts by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.Console.LoadDashboard(cmd.Context()); err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			for _, day := range c.app.Console.CalendarDays() {
				fmt.Fprintf(w, "%s\t%d shifts\t\t\t\n", day.Label, len(day.Shifts))
				for _, sh := range day.Shifts {
					status := "under ratio"
					if sh.RatioMet() {
						status = "ratio met"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s-%s\tratio %d\t%s\n",
						sh.ID, sh.Site,
						sh.StartTime.Local().Format("15:04"), sh.EndTime.Local().Format("15:04"),
						sh.MinimumRatio(), status)
				}
			}
			return w.Flush()
		},
	}

	var (
		shift       models.NewShift
		start       string
		hours       float64
		ratio       int
		leads       int
		openShift bool
	)
	add := &cobra.Command{
		Use:   "new",
		Short: "Schedule a shift in the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseTime("--start", start)
			if err != nil {
				return err
			}
			if hours <= 0 {
				return fmt.Errorf("--hours must be positive")
			}
			shift.StartTime = models.NewTimestamp(from)
			shift.EndTime = models.NewTimestamp(from.Add(time.Duration(hours * float64(time.Hour))))
			if cmd.Flags().Changed("ratio") {
				shift.RatioMin = models.Int(ratio)
			}
			if cmd.Flags().Changed("leads") {
				shift.LeadsRequired = models.Int(leads)
			}
			shift.OpenShift = openShift

			ctx := cmd.Context()
			if _, err := c.app.Console.LoadDashboard(ctx); err != nil {
				return err
			}
			created, err := c.app.Console.CreateShift(ctx, shift)
			if err != nil {
				return displayError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shift %s scheduled at %s (%d shifts on the calendar)\n",
				created.ID, created.StartTime.Local().Format(time.DateTime), len(c.app.Store.Shifts()))
			return nil
		},
	}
	add.Flags().StringVar(&shift.Site, "site", "", "site name")
	add.Flags().StringVar(&start, "start", "", "start time, e.g. 2030-06-01T09:00:00")
	add.Flags().Float64Var(&hours, "hours", 8, "length in hours")
	add.Flags().IntVar(&ratio, "ratio", 1, "minimum staff ratio")
	add.Flags().IntVar(&leads, "leads", 1, "leads required")
	add.Flags().BoolVar(&shift.IsSpecial, "special", false, "mark as a special shift")
	add.Flags().StringVar(&shift.Difficulty, "difficulty", "", "difficulty label")
	add.Flags().BoolVar(&openShift, "open", false, "broadcast as an open shift")
	_ = add.MarkFlagRequired("start")
	cmd.AddCommand(add)
	return cmd
}

func (c *cli) ratioCommand() *cobra.Command {
	var set int
	cmd := &cobra.Command{
		Use:   "ratio <shift-id>",
		Short: "Raise a shift's minimum ratio by one, or set it with --set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.Console.LoadDashboard(ctx); err != nil {
				return err
			}
			ratio := set
			if cmd.Flags().Changed("set") {
				if err := c.app.Console.SetRatio(ctx, args[0], set); err != nil {
					return err
				}
			} else {
				var err error
				if ratio, err = c.app.Console.IncreaseRatio(ctx, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shift %s ratio set to %d\n", args[0], ratio)
			return nil
		},
	}
	cmd.Flags().IntVar(&set, "set", 0, "ratio to set")
	return cmd
}

func (c *cli) openShiftsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open-shifts",
		Short: "List shifts open for requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shifts, err := c.app.Console.LoadOpenShifts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(shifts) == 0 {
				fmt.Fprintln(out, "No open shifts right now.")
				return nil
			}
			fmt.Fprintf(out, "Sites: %s\n", strings.Join(c.app.Console.OpenShiftSites(), ", "))
			w := table(out)
			fmt.Fprintln(w, "ID\tSITE\tSTART\tRATIO\tOPEN SLOT")
			for _, sh := range shifts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", sh.ID, sh.Site, sh.StartTime.Local().Format(time.DateTime), sh.MinimumRatio(), sh.PendingAssignmentID)
			}
			return w.Flush()
		},
	}
}

func (c *cli) requestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "request <shift-id>",
		Short: "Request the open slot of a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.Console.LoadOpenShifts(ctx); err != nil {
				return err
			}
			receipt, err := c.app.Console.RequestOpenShift(ctx, args[0])
			if err != nil {
				return displayError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (assignment %s)\n", receipt.Message, receipt.AssignmentID)
			return nil
		},
	}
}

func (c *cli) kidsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kids",
		Short: "List kids grouped by ratio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.Console.LoadKids(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, group := range c.app.Console.KidsByRatio() {
				fmt.Fprintf(out, "Ratio %s: %d kid(s)\n", group.Ratio, len(group.Kids))
				for _, kid := range group.Kids {
					kind := "Group"
					if kid.RequiresOneOnOne {
						kind = "1:1"
					}
					fmt.Fprintf(out, "  %s [%s] %s\n", kid.Name, kind, kid.SpecialInstructions)
				}
			}
			return nil
		},
	}

	var kid models.NewKid
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a kid to the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kid.Name = strings.TrimSpace(kid.Name)
			created, err := c.app.Console.AddKid(cmd.Context(), kid)
			if err != nil {
				return displayError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (ratio %s)\n", created.Name, created.Ratio)
			return nil
		},
	}
	add.Flags().StringVar(&kid.Name, "name", "", "kid's name")
	add.Flags().StringVar(&kid.Ratio, "ratio", "", "ratio label, e.g. 2:1")
	add.Flags().BoolVar(&kid.RequiresOneOnOne, "one-on-one", false, "requires a one-on-one trainer")
	add.Flags().StringVar(&kid.SpecialInstructions, "instructions", "", "special instructions")
	add.Flags().StringSliceVar(&kid.Bans, "ban", nil, "staff id the kid must not be paired with")
	cmd.AddCommand(add)
	return cmd
}

func (c *cli) deviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage notification devices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "register <push-token>",
		Short: "Register a push token for assignment alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Console.RegisterDevice(cmd.Context(), args[0]); err != nil {
				return displayError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Device registered")
			return nil
		},
	})
	return cmd
}

func (c *cli) teamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "List staff of the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			staff, err := c.app.Console.Team(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tSTATUS")
			for _, s := range staff {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.FullName, s.Email, s.Role, s.Status)
			}
			return w.Flush()
		},
	}

	var member models.NewStaff
	var role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account in the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			member.FullName = strings.TrimSpace(member.FullName)
			member.Email = strings.TrimSpace(member.Email)
			member.Role = models.Role(role)
			created, err := c.app.Console.AddTeamMember(cmd.Context(), member)
			if err != nil {
				return displayError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staff account created for %s (%s)\n", created.FullName, created.Role)
			return nil
		},
	}
	add.Flags().StringVar(&member.FullName, "name", "", "full name")
	add.Flags().StringVar(&member.Email, "email", "", "email")
	add.Flags().StringVar(&member.Password, "password", "", "initial password")
	add.Flags().StringVar(&role, "role", string(models.RoleStaff), "role")
	cmd.AddCommand(add)
	return cmd
}

func (c *cli) onsiteCommand() *cobra.Command {
	var lat, lon string
	cmd := &cobra.Command{
		Use:   "onsite",
		Short: "Check a position against the account geofence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var latP, lonP *float64
			if lat == "" && lon == "" {
				simLat, simLon := c.app.Console.SimulatedPosition()
				latP, lonP = &simLat, &simLon
			} else {
				var err error
				if latP, err = parseCoordinate(lat); err != nil {
					return err
				}
				if lonP, err = parseCoordinate(lon); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			result := c.app.Console.OnSite(latP, lonP)
			fmt.Fprintf(out, "%s (%.0f m)\n", result.Reason, result.DistanceMeters)
			if latP == nil || lonP == nil || !c.app.Session.State().IsAuthenticated() {
				return nil
			}

			ctx := cmd.Context()
			if _, err := c.app.Console.LoadDashboard(ctx); err != nil {
				return err
			}
			assignmentID, allowed, err := c.app.Console.ConfirmOnSite(ctx, *latP, *lonP)
			if errors.Is(err, console.ErrNoAssignment) {
				fmt.Fprintln(out, "No assignment to confirm with the server")
				return nil
			}
			if err != nil {
				return err
			}
			verdict := "denied"
			if allowed {
				verdict = "allowed"
			}
			fmt.Fprintf(out, "Server check for assignment %s: %s\n", assignmentID, verdict)
			return nil
		},
	}
	cmd.Flags().StringVar(&lat, "lat", "", "latitude")
	cmd.Flags().StringVar(&lon, "lon", "", "longitude")
	return cmd
}

// parseTime accepts the API's ISO layouts, "2006-01-02 15:04:05" and a bare date
func parseTime(flag, raw string) (time.Time, error) {
	if ts, err := models.ParseTimestamp(raw); err == nil {
		return ts.Time, nil
	}
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", flag, raw)
}

func parseCoordinate(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid coordinate %q", raw)
	}
	return &v, nil
}

func (c *cli) reportCommand() *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show utilization and ratio compliance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var from time.Time
			if since != "" {
				var err error
				if from, err = parseTime("--since", since); err != nil {
					return err
				}
			}

			report, err := c.app.Console.Reports(cmd.Context(), from)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			u := report.Utilization
			fmt.Fprintf(out, "Shifts: %d  ratio compliant: %d  open: %d  assignments/shift: %.2f\n",
				u.TotalShifts, u.RatioCompliant, u.OpenShifts, u.Averages.AssignmentsPerShift)

			roles := make([]string, 0, len(report.Compliance.ByRole))
			for role := range report.Compliance.ByRole {
				roles = append(roles, role)
			}
			sort.Strings(roles)
			w := table(out)
			fmt.Fprintln(w, "ROLE\tASSIGNMENTS\tHARD")
			for _, role := range roles {
				load := report.Compliance.ByRole[role]
				fmt.Fprintf(w, "%s\t%d\t%d\n", role, load.Count, load.Hard)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only count shifts starting at or after this date")
	return cmd
}
