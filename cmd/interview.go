package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/resume"
	"github.com/abhisek/mockprep/internal/ui/components"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Long: "Start an interview from a job description, a resume or a saved role, " +
		"or continue one with --continue. Submit an answer with ctrl+s. " +
		"Type :pause or press ctrl+p to take a break, :quit or esc to stop and continue later.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := buildRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		user, _ := cmd.Flags().GetString("user")
		id, err := startOrContinue(cmd.Context(), cmd, rt, user)
		if err != nil {
			return err
		}
		return runInterview(cmd, rt.interviews, id)
	},
}

func init() {
	f := interviewCmd.Flags()
	f.String("user", "local", "User id that owns the interview")
	f.String("continue", "", "Continue an existing interview by id")
	f.String("role-id", "", "Start from a saved role")
	f.String("job-file", "", "Generate the role from a job description file")
	f.String("job", "", "Generate the role from a job title or short description")
	f.String("resume", "", "Generate the role from a resume file (pdf, docx, txt, ...)")
	f.String("target-role", "", "Target role for --resume")
	f.String("level", "mid", "Experience level for --resume")
	f.StringSlice("types", []string{"technical"}, "Interview types: technical, behavioral, hr, custom")
	f.String("custom-type", "", "Label for the custom interview type")
	f.IntP("questions", "n", 0, "Number of questions (default from config)")
}

func startOrContinue(ctx context.Context, cmd *cobra.Command, rt *runtime, user string) (string, error) {
	f := cmd.Flags()
	if id, _ := f.GetString("continue"); id != "" {
		sess, err := rt.interviews.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if sess.UserID != user {
			return "", fmt.Errorf("interview %s belongs to another user", id)
		}
		return id, nil
	}
	if roleID, _ := f.GetString("role-id"); roleID != "" {
		return rt.interviews.StartFromSavedRole(ctx, user, roleID)
	}

	types, _ := f.GetStringSlice("types")
	categories, err := parseCategories(types)
	if err != nil {
		return "", err
	}
	custom, _ := f.GetString("custom-type")
	count, _ := f.GetInt("questions")

	var role interview.RoleBlock
	jobText, _ := f.GetString("job")
	if path, _ := f.GetString("job-file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		jobText = string(b)
	}
	resumePath, _ := f.GetString("resume")

	fmt.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("Designing the interview..."))
	switch {
	case jobText != "":
		role, err = rt.architect.FromJobText(ctx, questiongen.RoleRequest{
			JobText:        jobText,
			Categories:     categories,
			CustomCategory: custom,
			QuestionCount:  count,
		})
	case resumePath != "":
		var text string
		text, err = extractResumeFile(resumePath)
		if err != nil {
			return "", err
		}
		target, _ := f.GetString("target-role")
		level, _ := f.GetString("level")
		role, err = rt.architect.FromResume(ctx, questiongen.ResumeRequest{
			TargetRole:      target,
			ExperienceLevel: level,
			ResumeText:      text,
			Categories:      categories,
			CustomCategory:  custom,
			QuestionCount:   count,
		})
	default:
		return "", errors.New("one of --job, --job-file, --resume, --role-id or --continue is required")
	}
	if err != nil {
		return "", err
	}
	return rt.interviews.StartInterview(ctx, user, role)
}

func parseCategories(values []string) ([]interview.Category, error) {
	out := make([]interview.Category, 0, len(values))
	for _, v := range values {
		c, err := interview.ParseCategory(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func extractResumeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open resume: %w", err)
	}
	defer f.Close()
	return resume.Extractor{}.Extract(filepath.Base(path), f)
}


const (
	answerPlaceholder = "Type your answer..."
	maxScreenWidth    = 100
)

type phase int

const (
	phaseLoading phase = iota
	phaseAnswering
	phaseWaiting
	phaseEvaluated
	phaseFeedback
	phasePaused
	phaseReport
	phaseDone
)

type (
	sessionLoadedMsg struct {
		sess *interview.Session
		err  error
	}
	questionMsg struct {
		next interview.NextQuestion
		err  error
	}
	evaluatedMsg struct {
		res interview.TurnResult
		err error
	}
	feedbackMsg struct {
		fb  interview.FeedbackBlock
		err error
	}
	pausedMsg struct {
		err error
	}
	resumedMsg struct {
		sess *interview.Session
		err  error
	}
	reportMsg struct {
		report interview.FinalReport
		err    error
	}
)

// interviewScreen is the Bubble Tea model for one interview. Service calls
// run as commands and come back as messages.
type interviewScreen struct {
	ctx   context.Context
	svc   *interview.Service
	id    string
	width int
	clock func() time.Time

	phase    phase
	role     interview.RoleBlock
	next     interview.NextQuestion
	started  time.Time
	input    components.AnswerInput
	result   interview.TurnResult
	feedback *interview.FeedbackBlock
	report   *interview.FinalReport
	notice   string
	left     bool // quit with the interview still open
	err      error
}

var _ tea.Model = (*interviewScreen)(nil)

func newInterviewScreen(ctx context.Context, svc *interview.Service, id string) *interviewScreen {
	return &interviewScreen{
		ctx:   llm.WithSession(ctx, id),
		svc:   svc,
		id:    id,
		width: components.DefaultWidth,
		clock: time.Now,
		input: components.NewAnswerInput(answerPlaceholder, components.DefaultWidth),
	}
}

// runInterview runs the screen until the candidate quits or the report is
// dismissed.
func runInterview(cmd *cobra.Command, svc *interview.Service, id string) error {
	ctx := cmd.Context()
	p := tea.NewProgram(newInterviewScreen(ctx, svc, id),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if s, ok := final.(*interviewScreen); ok {
		return s.err
	}
	return nil
}

func (s *interviewScreen) Init() tea.Cmd {
	return s.load()
}

func (s *interviewScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = min(msg.Width, maxScreenWidth)
		s.input.Model.SetWidth(s.width)
		return s, nil

	case sessionLoadedMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		s.role = msg.sess.Role
		if msg.sess.Status == interview.StatusPaused {
			return s, s.resume()
		}
		return s, s.selectNext()

	case questionMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		if msg.next.Complete {
			return s.wait("Writing your report...", s.finalize())
		}
		s.next = msg.next
		s.started = s.clock()
		s.input = components.NewAnswerInput(answerPlaceholder, s.width)
		s.feedback = nil
		s.phase = phaseAnswering
		return s, nil

	case evaluatedMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		s.result = msg.res
		s.notice = ""
		s.phase = phaseEvaluated
		return s, nil

	case feedbackMsg:
		s.phase = phaseFeedback
		if msg.err != nil {
			s.notice = "Feedback unavailable: " + msg.err.Error()
			return s, nil
		}
		s.notice = ""
		s.feedback = &msg.fb
		return s, nil

	case pausedMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		s.notice = ""
		s.phase = phasePaused
		return s, nil

	case resumedMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		s.notice = fmt.Sprintf("Resumed. Total time paused: %s.", interview.FormatDuration(msg.sess.PauseDurationSeconds))
		if s.next.Number > 0 {
			s.phase = phaseAnswering
			return s, nil
		}
		return s, s.selectNext()

	case reportMsg:
		if msg.err != nil {
			return s.fail(msg.err)
		}
		s.report = &msg.report
		s.notice = ""
		s.phase = phaseReport
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAnswering {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *interviewScreen) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return s.leave()
	}

	switch s.phase {
	case phaseAnswering:
		switch key {
		case "esc":
			return s.leave()
		case "ctrl+p":
			return s.wait("Pausing...", s.pause())
		case "ctrl+s":
			return s.submit()
		case "enter":
			if s.input.Command() != "" {
				return s.submit()
			}
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseEvaluated:
		switch key {
		case "f":
			return s.wait("Writing feedback...", s.requestFeedback(s.result.Entry.QuestionNumber))
		case "enter", "space", "n":
			return s.advance()
		case "esc", "q":
			return s.leave()
		}

	case phaseFeedback:
		return s.advance()

	case phasePaused:
		switch key {
		case "enter":
			return s.wait("Resuming...", s.resume())
		case "esc", "q":
			return s.leave()
		}

	case phaseReport:
		s.phase = phaseDone
		return s, tea.Quit
	}
	return s, nil
}

func (s *interviewScreen) submit() (tea.Model, tea.Cmd) {
	switch s.input.Command() {
	case components.CommandQuit:
		return s.leave()
	case components.CommandPause:
		s.input.SetValue("")
		return s.wait("Pausing...", s.pause())
	}
	answer := s.input.Value()
	if answer == "" {
		s.notice = "Write an answer first."
		return s, nil
	}
	return s.wait("Evaluating your answer...", s.evaluate(answer, s.started))
}

func (s *interviewScreen) advance() (tea.Model, tea.Cmd) {
	if s.result.Complete {
		return s.wait("Writing your report...", s.finalize())
	}
	s.notice = ""
	s.phase = phaseLoading
	return s, s.selectNext()
}

func (s *interviewScreen) wait(notice string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	s.notice = notice
	s.phase = phaseWaiting
	return s, cmd
}

func (s *interviewScreen) leave() (tea.Model, tea.Cmd) {
	s.left = true
	s.phase = phaseDone
	return s, tea.Quit
}

func (s *interviewScreen) fail(err error) (tea.Model, tea.Cmd) {
	s.err = err
	s.phase = phaseDone
	return s, tea.Quit
}

func (s *interviewScreen) load() tea.Cmd {
	return func() tea.Msg {
		sess, err := s.svc.Get(s.ctx, s.id)
		return sessionLoadedMsg{sess: sess, err: err}
	}
}

func (s *interviewScreen) selectNext() tea.Cmd {
	return func() tea.Msg {
		next, err := s.svc.SelectNextQuestion(s.ctx, s.id)
		return questionMsg{next: next, err: err}
	}
}

func (s *interviewScreen) evaluate(answer string, started time.Time) tea.Cmd {
	return func() tea.Msg {
		res, err := s.svc.SubmitAnswer(s.ctx, s.id, interview.SubmitInput{Answer: answer, QuestionStartedAt: started})
		return evaluatedMsg{res: res, err: err}
	}
}

func (s *interviewScreen) requestFeedback(n int) tea.Cmd {
	return func() tea.Msg {
		fb, err := s.svc.RequestFeedback(s.ctx, s.id, n)
		return feedbackMsg{fb: fb, err: err}
	}
}

func (s *interviewScreen) pause() tea.Cmd {
	return func() tea.Msg {
		_, err := s.svc.Pause(s.ctx, s.id)
		return pausedMsg{err: err}
	}
}

func (s *interviewScreen) resume() tea.Cmd {
	return func() tea.Msg {
		sess, err := s.svc.Resume(s.ctx, s.id)
		return resumedMsg{sess: sess, err: err}
	}
}

func (s *interviewScreen) finalize() tea.Cmd {
	return func() tea.Msg {
		report, err := s.svc.FinalizeReport(s.ctx, s.id)
		return reportMsg{report: report, err: err}
	}
}

func (s *interviewScreen) View() tea.View {
	return tea.NewView(s.render())
}

func (s *interviewScreen) render() string {
	var b strings.Builder
	if s.role.RoleName != "" {
		b.WriteString(theme.Title.Render(s.role.RoleName) + "  " +
			theme.Subtitle.Render(fmt.Sprintf("%s · %d questions · id %s", s.role.Difficulty, s.role.TotalQuestions, s.id)))
		b.WriteString("\n\n")
	}

	switch s.phase {
	case phaseAnswering:
		b.WriteString(components.NewProgressBar(s.next.Number-1, s.next.Total, s.width).View() + "\n")
		b.WriteString(components.QuestionCard(s.next, s.width) + "\n")
		b.WriteString(s.input.View() + "\n")
		b.WriteString(keyHints("ctrl+s submit", "ctrl+p or :pause pause", "esc or :quit save and quit"))
	case phaseEvaluated:
		b.WriteString(components.EvaluationCard(s.result.Evaluation, s.role.Rubric, s.result.AutoFailed, s.width) + "\n")
		b.WriteString(keyHints("f coaching", "enter continue", "q save and quit"))
	case phaseFeedback:
		if s.feedback != nil {
			b.WriteString(components.FeedbackCard(s.result.Entry.QuestionNumber, *s.feedback, s.width) + "\n")
		}
		b.WriteString(keyHints("any key continue"))
	case phasePaused:
		b.WriteString(theme.Warning.Render("Paused. Press Enter to resume.") + "\n")
		b.WriteString(keyHints("enter resume", "q save and quit"))
	case phaseReport:
		b.WriteString(components.ReportCard(*s.report, s.width) + "\n")
		b.WriteString(theme.Hint.Render("Export with: mockprep export "+s.id) + "\n")
		b.WriteString(keyHints("any key exit"))
	case phaseDone:
		switch {
		case s.err != nil:
			b.WriteString(theme.Weak.Render("Error: " + s.err.Error()))
		case s.left:
			b.WriteString(theme.Hint.Render("Saved. Continue later with: mockprep interview --continue " + s.id))
		case s.report != nil:
			b.WriteString(components.ReportCard(*s.report, s.width) + "\n")
			b.WriteString(theme.Hint.Render("Export with: mockprep export " + s.id))
		}
		return b.String() + "\n"
	}

	if s.notice != "" {
		b.WriteString("\n" + theme.Hint.Render(s.notice))
	}
	return b.String() + "\n"
}

func keyHints(hints ...string) string {
	return theme.Hint.Render(strings.Join(hints, " · "))
}
