package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"taskflow/internal/client"
	"taskflow/internal/models"
)

type cli struct {
	api   *client.Client
	tasks *client.TaskStore
	out   io.Writer
	name  string
	flags *pflag.FlagSet
}

type command func(ctx context.Context, c *cli, args []string) error

var commands = map[string]command{
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"health":   cmdHealth,
	"tasks":    cmdTasks,
	"show":     cmdShow,
	"create":   cmdCreate,
	"update":   cmdUpdate,
	"status":   cmdStatus,
	"priority": cmdPriority,
	"delete":   cmdDelete,
	"comments": cmdComments,
	"comment":  cmdComment,
	"users":    cmdUsers,
	"register": cmdRegister,
}

// positional parses the command's flags and checks that exactly n
// positional arguments remain.
func (c *cli) positional(args []string, n int, names ...string) ([]string, error) {
	if err := c.flags.Parse(args); err != nil {
		return nil, err
	}
	if c.flags.NArg() != n {
		return nil, fmt.Errorf("%s expects %s", c.name, strings.Join(names, " "))
	}
	return c.flags.Args(), nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	email := c.flags.String("email", "", "account email")
	password := c.flags.String("password", "", "account password")
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login needs --email and --password")
	}
	user, err := c.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, args []string) error {
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	if err := c.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, c *cli, args []string) error {
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	user, err := c.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> %s\n", user.Name, user.Email, user.Role)
	return nil
}

func cmdHealth(ctx context.Context, c *cli, args []string) error {
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	health, err := c.api.Health(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(health))
	for k := range health {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(c.out, "%s: %s\n", k, health[k])
	}
	return nil
}

func cmdTasks(ctx context.Context, c *cli, args []string) error {
	status := c.flags.String("status", "", "only tasks with this status")
	priority := c.flags.String("priority", "", "only tasks with this priority")
	search := c.flags.String("search", "", "text to find in title or description")
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	c.tasks.SetFilters(client.Filters{
		Status:   models.Status(strings.ToUpper(*status)),
		Priority: models.Priority(strings.ToUpper(*priority)),
		Search:   *search,
	})
	if err := c.tasks.Fetch(ctx); err != nil {
		return err
	}
	printTasks(c.out, c.tasks.Tasks())
	return nil
}

func cmdShow(ctx context.Context, c *cli, args []string) error {
	rest, err := c.positional(args, 1, "<task-id>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	task, err := c.tasks.FetchOne(ctx, id)
	if err != nil {
		return err
	}
	printTask(c.out, *task)
	return nil
}

func cmdCreate(ctx context.Context, c *cli, args []string) error {
	title := c.flags.String("title", "", "task title")
	description := c.flags.String("description", "", "task description")
	priority := c.flags.String("priority", "", "LOW, MEDIUM, HIGH or URGENT")
	assign := c.flags.Int("assign", 0, "assignee user id")
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	form := client.TaskForm{
		Title:       *title,
		Description: *description,
		Priority:    models.Priority(strings.ToUpper(*priority)),
	}
	if c.flags.Changed("assign") {
		form.AssignedToID = assign
	}
	task, err := c.tasks.Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created task %d\n", task.ID)
	return nil
}

func cmdUpdate(ctx context.Context, c *cli, args []string) error {
	title := c.flags.String("title", "", "new title")
	description := c.flags.String("description", "", "new description")
	status := c.flags.String("status", "", "new status")
	priority := c.flags.String("priority", "", "new priority")
	assign := c.flags.Int("assign", 0, "new assignee user id")
	unassign := c.flags.Bool("unassign", false, "remove the assignee")
	rest, err := c.positional(args, 1, "<task-id>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}

	var patch models.TaskPatch
	if c.flags.Changed("title") {
		patch.Title = title
	}
	if c.flags.Changed("description") {
		patch.Description = description
	}
	if c.flags.Changed("status") {
		s := models.Status(strings.ToUpper(*status))
		patch.Status = &s
	}
	if c.flags.Changed("priority") {
		p := models.Priority(strings.ToUpper(*priority))
		patch.Priority = &p
	}
	switch {
	case *unassign && c.flags.Changed("assign"):
		return errors.New("--assign and --unassign are exclusive")
	case *unassign:
		patch.AssignedToID = models.NullableID{Set: true}
	case c.flags.Changed("assign"):
		patch.AssignedToID = models.NewNullableID(*assign)
	}

	task, err := c.tasks.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	printTask(c.out, *task)
	return nil
}

func cmdStatus(ctx context.Context, c *cli, args []string) error {
	rest, err := c.positional(args, 2, "<task-id>", "<status>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	task, err := c.tasks.UpdateStatus(ctx, id, models.Status(strings.ToUpper(rest[1])))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Task %d is now %s\n", task.ID, task.Status)
	return nil
}

func cmdPriority(ctx context.Context, c *cli, args []string) error {
	rest, err := c.positional(args, 2, "<task-id>", "<priority>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	task, err := c.tasks.UpdatePriority(ctx, id, models.Priority(strings.ToUpper(rest[1])))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Task %d priority is now %s\n", task.ID, task.Priority)
	return nil
}

func cmdDelete(ctx context.Context, c *cli, args []string) error {
	rest, err := c.positional(args, 1, "<task-id>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	if err := c.tasks.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Task deleted successfully")
	return nil
}

func cmdComments(ctx context.Context, c *cli, args []string) error {
	rest, err := c.positional(args, 1, "<task-id>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	comments, err := c.api.ListComments(ctx, id)
	if err != nil {
		return err
	}
	printComments(c.out, comments)
	return nil
}

func cmdComment(ctx context.Context, c *cli, args []string) error {
	if err := c.flags.Parse(args); err != nil {
		return err
	}
	if c.flags.NArg() < 2 {
		return errors.New("comment expects <task-id> <text>")
	}
	id, err := parseID(c.flags.Arg(0))
	if err != nil {
		return err
	}
	comment, err := c.api.CreateComment(ctx, id, strings.Join(c.flags.Args()[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added comment %d\n", comment.ID)
	return nil
}

func cmdUsers(ctx context.Context, c *cli, args []string) error {
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	users, err := c.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return w.Flush()
}

func cmdRegister(ctx context.Context, c *cli, args []string) error {
	name := c.flags.String("name", "", "full name")
	email := c.flags.String("email", "", "email address")
	password := c.flags.String("password", "", "initial password")
	role := c.flags.String("role", "", "ADMIN or EMPLOYEE")
	if _, err := c.positional(args, 0); err != nil {
		return err
	}
	user, err := c.api.Register(ctx, client.RegisterForm{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     models.Role(strings.ToUpper(*role)),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Registered %s with id %d\n", user.Email, user.ID)
	return nil
}

func assigneeName(t models.Task) string {
	if t.AssignedTo == nil {
		return "-"
	}
	return t.AssignedTo.Name
}

func printTasks(out io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, assigneeName(t), t.Title)
	}
	_ = w.Flush()
}

func printTask(out io.Writer, t models.Task) {
	fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(out, "  status:   %s\n  priority: %s\n  assignee: %s\n", t.Status, t.Priority, assigneeName(t))
	if t.Description != nil && *t.Description != "" {
		fmt.Fprintf(out, "  %s\n", *t.Description)
	}
	if len(t.Comments) > 0 {
		fmt.Fprintln(out)
		printComments(out, t.Comments)
	}
}

func printComments(out io.Writer, comments []models.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments")
		return
	}
	for _, cm := range comments {
		author := "unknown"
		if cm.Author != nil {
			author = cm.Author.Name
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", cm.CreatedAt.Format("2006-01-02 15:04"), author, cm.Content)
	}
}
