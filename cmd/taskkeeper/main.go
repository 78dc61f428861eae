// Package main runs the TaskKeeper interactive shell, wiring configuration,
// logging, the file-backed repositories, and the services together.
package main

import (
	"bufio"
	"cmp"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/TaskKeeper/internal/config"
	"github.com/atinyakov/TaskKeeper/internal/logger"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/repository"
	"github.com/atinyakov/TaskKeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	credRepo := repository.NewFileCredentialRepository(options.UsersPath())
	taskRepo := repository.NewFileTaskRepository(options.TasksPath(), options.MultiUser)
	histRepo := repository.NewFileHistoryRepository(options.HistoryPath(), options.MultiUser)

	authService := service.NewAuthService(credRepo, zapLogger)
	taskService := service.NewTaskService(taskRepo, histRepo, zapLogger)
	historyService := service.NewHistoryService(histRepo, zapLogger)

	scanner := bufio.NewScanner(os.Stdin)

	owner := ""
	if options.MultiUser {
		owner = authGate(scanner, authService)
		if owner == "" {
			return
		}
	}

	zapLogger.Info("starting shell", zap.Bool("multiuser", options.MultiUser))
	repl(scanner, owner, taskService, historyService)
}

// authGate prompts for login or registration until one succeeds and
// returns the authenticated username. It returns "" on EOF or exit.
func authGate(scanner *bufio.Scanner, auth *service.AuthService) string {
	for {
		answer, ok := prompt(scanner, "login, register or exit? ")
		if !ok {
			return ""
		}
		switch answer {
		case "login":
			email, ok := prompt(scanner, "Email: ")
			if !ok {
				return ""
			}
			password, ok := prompt(scanner, "Password: ")
			if !ok {
				return ""
			}
			account, err := auth.Authenticate(email, password)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("Welcome back, %s!\n", account.Username)
			return account.Username
		case "register":
			username, ok := prompt(scanner, "Username: ")
			if !ok {
				return ""
			}
			email, ok := prompt(scanner, "Email: ")
			if !ok {
				return ""
			}
			password, ok := prompt(scanner, "Password: ")
			if !ok {
				return ""
			}
			account, err := auth.Register(username, email, password)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("Account created successfully")
			return account.Username
		case "exit":
			return ""
		default:
			fmt.Println("Please answer login, register or exit.")
		}
	}
}

// repl runs the interactive shell loop, accepting commands to manage tasks.
func repl(scanner *bufio.Scanner, owner string, tasks *service.TaskService, history *service.HistoryService) {
	for {
		fmt.Print("taskkeeper> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, list, add, update <n>, done <n>, failed <n>, archive <n>, delete <n>, clear, upcoming [days], history [all|done|failed], exit")
		case "list":
			loaded, err := tasks.Load(owner)
			if err != nil {
				fmt.Println(err)
				continue
			}
			printTasks(loaded)
		case "add":
			input, err := promptTask(scanner)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if _, err := tasks.Create(owner, input); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("Task added")
		case "update":
			index, ok := argIndex(args)
			if !ok {
				continue
			}
			input, err := promptTask(scanner)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if _, err := tasks.Update(owner, index, input); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("Task updated")
		case "done":
			index, ok := argIndex(args)
			if !ok {
				continue
			}
			task, err := tasks.MarkDone(owner, index)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("%s: %s\n", task.Name, task.Status)
		case "failed":
			index, ok := argIndex(args)
			if !ok {
				continue
			}
			task, err := tasks.MarkFailed(owner, index)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("%s: %s\n", task.Name, task.Status)
		case "archive":
			index, ok := argIndex(args)
			if !ok {
				continue
			}
			task, err := tasks.Archive(owner, index)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("Task %q has been moved to history\n", task.Name)
		case "delete":
			index, ok := argIndex(args)
			if !ok {
				continue
			}
			if err := tasks.Delete(owner, index); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("Task deleted")
		case "clear":
			if err := tasks.ClearAll(owner); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("All tasks cleared")
		case "upcoming":
			days := 7
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					fmt.Println("Usage: upcoming [days]")
					continue
				}
				days = n
			}
			loaded, err := tasks.Upcoming(owner, time.Duration(days)*24*time.Hour)
			if err != nil {
				fmt.Println(err)
				continue
			}
			printTasks(loaded)
		case "history":
			filter := service.FilterAll
			if len(args) > 1 {
				switch args[1] {
				case "all", "done", "failed":
					filter = service.StatusFilter(args[1])
				default:
					fmt.Println("Usage: history [all|done|failed]")
					continue
				}
			}
			now := time.Now()
			res, err := history.Query(service.HistoryQuery{
				Owner:  owner,
				From:   now.AddDate(0, 0, -6),
				To:     now,
				Status: filter,
			})
			if err != nil {
				fmt.Println(err)
				continue
			}
			printHistory(res)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// prompt reads one trimmed line after printing label. ok is false on EOF.
func prompt(scanner *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// promptTask collects the editable fields of a task from the user.
func promptTask(scanner *bufio.Scanner) (service.TaskInput, error) {
	name, ok := prompt(scanner, "Task name: ")
	if !ok {
		return service.TaskInput{}, fmt.Errorf("input aborted")
	}
	description, ok := prompt(scanner, "Description: ")
	if !ok {
		return service.TaskInput{}, fmt.Errorf("input aborted")
	}
	startText, ok := prompt(scanner, "Start time (yyyy-MM-dd HH:mm): ")
	if !ok {
		return service.TaskInput{}, fmt.Errorf("input aborted")
	}
	start, err := time.Parse(models.TimeLayout, startText)
	if err != nil {
		return service.TaskInput{}, fmt.Errorf("invalid start time: %w", err)
	}
	deadlineText, ok := prompt(scanner, "Deadline (yyyy-MM-dd HH:mm): ")
	if !ok {
		return service.TaskInput{}, fmt.Errorf("input aborted")
	}
	deadline, err := time.Parse(models.TimeLayout, deadlineText)
	if err != nil {
		return service.TaskInput{}, fmt.Errorf("invalid deadline: %w", err)
	}
	priorityText, ok := prompt(scanner, "Priority (None/Low/Medium/High): ")
	if !ok {
		return service.TaskInput{}, fmt.Errorf("input aborted")
	}
	priority, err := models.ParsePriority(priorityText)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Name:        name,
		Description: description,
		Start:       start,
		Deadline:    deadline,
		Priority:    priority,
	}, nil
}

// argIndex parses the 1-based position argument of a command.
func argIndex(args []string) (int, bool) {
	if len(args) < 2 {
		fmt.Printf("Usage: %s <n>\n", args[0])
		return 0, false
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		fmt.Printf("Usage: %s <n>\n", args[0])
		return 0, false
	}
	return n - 1, true
}

func printTasks(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks")
		return
	}
	for i, t := range tasks {
		fmt.Printf("%d. %s [%s] %s - %s\n   %s\n   Status: %s\n",
			i+1, t.Name, t.Priority,
			t.Start.Format(models.TimeLayout), t.Deadline.Format(models.TimeLayout),
			t.Description, t.Status)
	}
}

func printHistory(res service.QueryResult) {
	if len(res.Entries) == 0 {
		fmt.Println("No history entries")
		return
	}
	for _, e := range res.Entries {
		fmt.Printf("%s | %s | %s\n", e.Name, e.Priority, e.Status)
	}
	fmt.Println("Per-day counts:")
	for day, n := range res.Done {
		fmt.Printf("  %s: %d done\n", day, n)
	}
	for day, n := range res.Failed {
		fmt.Printf("  %s: %d failed\n", day, n)
	}
}
