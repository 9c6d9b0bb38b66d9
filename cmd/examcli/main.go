// examcli is a terminal exam client. It logs in, fetches a sanitized paper,
// and drives a locked-down answer session against the server: the terminal is
// switched to raw mode for the duration of the attempt and restored on any
// exit path, submitted or not.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/openexam/examportal-backend/internal/examsession"
	"golang.org/x/term"
)

// envelope mirrors the server response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type loginData struct {
	Token string `json:"token"`
}

type examPaper struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	TotalMarks      int    `json:"total_marks"`
	DurationMinutes int    `json:"duration_minutes"`
}

type examQuestion struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
	Marks   int    `json:"marks"`
}

type examPayload struct {
	Paper     examPaper      `json:"paper"`
	Questions []examQuestion `json:"questions"`
}

type resultSummary struct {
	Score   int `json:"score"`
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Total   int `json:"total"`
}

// apiClient is a thin wrapper over the portal's HTTP API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func (a *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (a *apiClient) login(ctx context.Context, username, password string) error {
	var data loginData
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &data)
	if err != nil {
		return err
	}
	a.token = data.Token
	return nil
}

func (a *apiClient) fetchExam(ctx context.Context, paperID int, lang string) (*examPayload, error) {
	path := fmt.Sprintf("/api/v1/exam/%d", paperID)
	if lang != "" {
		path += "?lang=" + lang
	}
	var payload examPayload
	if err := a.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (a *apiClient) submitExam(ctx context.Context, paperID int, answers map[int]string) (*resultSummary, error) {
	var summary resultSummary
	err := a.do(ctx, http.MethodPost, "/api/v1/exam/submit", map[string]interface{}{
		"paper_id": paperID,
		"answers":  answers,
	}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// terminalLockdown puts the terminal in raw mode while the exam is active.
// Release restores the previous state and is safe to call after a failed
// Engage.
type terminalLockdown struct {
	fd    int
	state *term.State
}

func (l *terminalLockdown) Engage() error {
	state, err := term.MakeRaw(l.fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	l.state = state
	return nil
}

func (l *terminalLockdown) Release() {
	if l.state != nil {
		_ = term.Restore(l.fd, l.state)
		l.state = nil
	}
}

func main() {
	server := flag.String("server", "http://localhost:8080", "portal base URL")
	paperID := flag.Int("paper", 0, "question paper ID")
	lang := flag.String("lang", "", "translation language (e.g. hi)")
	flag.Parse()

	if *paperID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: examcli -paper <id> [-server URL] [-lang hi]")
		os.Exit(1)
	}

	ctx := context.Background()
	client := &apiClient{base: strings.TrimRight(*server, "/"), http: &http.Client{Timeout: 30 * time.Second}}

	// ─── Login ─────────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading password")
		os.Exit(1)
	}

	if err := client.login(ctx, username, string(bytePassword)); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	// ─── Fetch Paper ───────────────────────────────────────────────────
	payload, err := client.fetchExam(ctx, *paperID, *lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch exam failed: %v\n", err)
		os.Exit(1)
	}
	if len(payload.Questions) == 0 {
		fmt.Fprintln(os.Stderr, "paper has no questions")
		os.Exit(1)
	}

	fmt.Printf("\n%s  (%d marks, %d minutes, %d questions)\n",
		payload.Paper.Title, payload.Paper.TotalMarks, payload.Paper.DurationMinutes, len(payload.Questions))
	fmt.Println("Keys: a/b/c/d answer, n/p move, s submit. The terminal is locked until the exam ends.")
	fmt.Print("Press Enter to begin...")
	_, _ = reader.ReadString('\n')

	runExam(ctx, client, payload)
}

// runExam owns the session lifecycle from Start to Terminated.
func runExam(ctx context.Context, client *apiClient, payload *examPayload) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lockdown := &terminalLockdown{fd: int(os.Stdin.Fd())}

	session, err := examsession.New(examsession.Config{
		Duration: time.Duration(payload.Paper.DurationMinutes) * time.Minute,
		Lockdown: lockdown,
		Submit: func(ctx context.Context, answers map[int]string) (*examsession.Result, error) {
			summary, err := client.submitExam(ctx, payload.Paper.ID, answers)
			if err != nil {
				return nil, err
			}
			return &examsession.Result{
				Score:   summary.Score,
				Correct: summary.Correct,
				Wrong:   summary.Wrong,
				Total:   summary.Total,
			}, nil
		},
		OnTick: func(remaining time.Duration) {
			mins := int(remaining.Minutes())
			secs := int(remaining.Seconds()) % 60
			fmt.Printf("\r[%02d:%02d] ", mins, secs)
		},
		OnWarn: func(reason string) {
			fmt.Printf("\r\nWarning: %s\r\n", reason)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "session setup failed: %v\n", err)
		os.Exit(1)
	}

	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
		os.Exit(1)
	}

	go inputLoop(ctx, session, payload)

	<-session.Done()

	result, err := session.Outcome()
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "submission failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Score: %d  (correct %d, wrong %d, total %d)\n",
		result.Score, result.Correct, result.Wrong, result.Total)
}

// inputLoop reads single keys in raw mode and drives the session. It exits
// when the session terminates, whichever trigger got there first.
func inputLoop(ctx context.Context, session *examsession.Session, payload *examPayload) {
	current := 0
	renderQuestion(payload.Questions[current], current, len(payload.Questions), session.Answers())

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		if session.State() != examsession.StateActive {
			return
		}

		switch buf[0] {
		case 'a', 'b', 'c', 'd':
			option := strings.ToUpper(string(buf[0]))
			if err := session.SelectAnswer(payload.Questions[current].ID, option); err != nil {
				return
			}
			fmt.Printf("\r\nAnswered %s\r\n", option)
			if current < len(payload.Questions)-1 {
				current++
				renderQuestion(payload.Questions[current], current, len(payload.Questions), session.Answers())
			}
		case 'n':
			if current < len(payload.Questions)-1 {
				current++
			}
			renderQuestion(payload.Questions[current], current, len(payload.Questions), session.Answers())
		case 'p':
			if current > 0 {
				current--
			}
			renderQuestion(payload.Questions[current], current, len(payload.Questions), session.Answers())
		case 's':
			if _, err := session.Submit(ctx); err != nil {
				if err == examsession.ErrSubmissionInFlight {
					return
				}
			}
			return
		case 3: // Ctrl+C in raw mode
			session.Warn("interrupt ignored while the exam is active")
		}
	}
}

func renderQuestion(q examQuestion, idx, total int, answers map[int]string) {
	fmt.Printf("\r\nQ%d/%d (%d marks): %s\r\n", idx+1, total, q.Marks, q.Text)
	fmt.Printf("  a) %s\r\n  b) %s\r\n  c) %s\r\n  d) %s\r\n", q.OptionA, q.OptionB, q.OptionC, q.OptionD)
	if sel, ok := answers[q.ID]; ok {
		fmt.Printf("  current answer: %s\r\n", sel)
	}
}
