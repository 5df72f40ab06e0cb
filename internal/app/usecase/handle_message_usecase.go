package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fardannozami/crimewatch/internal/app/route"
	"github.com/fardannozami/crimewatch/internal/domain"
)

const helpText = "🛡️ Crimewatch commands\n\n" +
	"#reports [location] - recent reports, optionally filtered\n" +
	"#lapor title | location | type | severity | description - submit a report\n" +
	"#vote <id> helpful|unhelpful - rate a report\n" +
	"#leaderboard - top contributors\n" +
	"#reputation [user id] - reputation and badges\n" +
	"#stats - community numbers\n" +
	"#predict location [| type] - crime risk estimate\n" +
	"#mypredictions - predictions requested so far\n" +
	"#whoami - the account the bot is signed in with\n" +
	"#users - registered accounts (admin only)"

type SubmitExecutor interface {
	Execute(ctx context.Context, senderName, args string) (string, error)
}

type ArgsExecutor interface {
	Execute(ctx context.Context, args string) (string, error)
}

type PlainExecutor interface {
	Execute(ctx context.Context) (string, error)
}

// Commands wires each chat command to the use case serving it.
type Commands struct {
	Submit      SubmitExecutor
	Reports     ArgsExecutor
	Vote        ArgsExecutor
	Leaderboard PlainExecutor
	Reputation  ArgsExecutor
	Dashboard   PlainExecutor

	Predict       ArgsExecutor
	MyPredictions PlainExecutor
	Users         PlainExecutor
}

type HandleMessageUsecase struct {
	newNav   NavigatorFactory
	identity IdentityReader
	cmds     Commands

	perMinute int
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	navs      map[string]Navigator
}

// NewHandleMessageUsecase routes chat commands. Each sender gets its own
// navigator from newNav. perMinute <= 0 disables the per-sender limit.
func NewHandleMessageUsecase(newNav NavigatorFactory, identity IdentityReader, cmds Commands, perMinute int) *HandleMessageUsecase {
	return &HandleMessageUsecase{
		newNav:    newNav,
		identity:  identity,
		cmds:      cmds,
		perMinute: perMinute,
		limiters:  make(map[string]*rate.Limiter),
		navs:      make(map[string]Navigator),
	}
}

// Execute returns the reply for msg, or "" when the message is not a command
// or the sender is over the limit.
func (uc *HandleMessageUsecase) Execute(ctx context.Context, senderID, senderName, msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "#") {
		return "", nil
	}

	cmd, args, _ := strings.Cut(msg, " ")
	view, ok := commandView(strings.ToLower(cmd))
	if !ok {
		return "", nil
	}
	args = strings.TrimSpace(args)

	if !uc.allow(senderID) {
		return "", nil
	}

	if d := uc.navigator(senderID).Navigate(view); !d.Allowed {
		return fmt.Sprintf("🔒 %s needs a signed-in account and the bot is signed out right now. Try again once an admin logs it back in.", d.From), nil
	}

	reply, err := uc.dispatch(ctx, view, senderName, args)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return "⚠️ " + de.Error(), nil
		}
		return "", err
	}
	return reply, nil
}

func (uc *HandleMessageUsecase) dispatch(ctx context.Context, view route.View, senderName, args string) (string, error) {
	switch view {
	case ViewHelp:
		return helpText, nil
	case ViewSubmit:
		return uc.cmds.Submit.Execute(ctx, senderName, args)
	case ViewReports:
		return uc.cmds.Reports.Execute(ctx, args)
	case ViewVote:
		return uc.cmds.Vote.Execute(ctx, args)
	case ViewLeaderboard:
		return uc.cmds.Leaderboard.Execute(ctx)
	case ViewReputation:
		return uc.cmds.Reputation.Execute(ctx, args)
	case ViewStats:
		return uc.cmds.Dashboard.Execute(ctx)
	case ViewWhoAmI:
		return uc.whoAmI(), nil
	case ViewPredict:
		return uc.cmds.Predict.Execute(ctx, args)
	case ViewMyPredicts:
		return uc.cmds.MyPredictions.Execute(ctx)
	case ViewUsers:
		return uc.cmds.Users.Execute(ctx)
	}
	return "", nil
}

func (uc *HandleMessageUsecase) whoAmI() string {
	id, ok := uc.identity.Identity()
	if !ok {
		return "The bot is not signed in."
	}
	return fmt.Sprintf("👤 Signed in as %s\nrole: %s\nid: %s", id.Email, id.Role, id.ID)
}

func (uc *HandleMessageUsecase) navigator(senderID string) Navigator {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	n, ok := uc.navs[senderID]
	if !ok {
		n = uc.newNav(senderID)
		uc.navs[senderID] = n
	}
	return n
}

// ResumeAll moves every sender that was sent to login back to the command
// they asked for, and returns how many were let through. Only navigation state
// is restored; the denied commands are not run again.
func (uc *HandleMessageUsecase) ResumeAll() int {
	uc.mu.Lock()
	navs := make([]Navigator, 0, len(uc.navs))
	for _, n := range uc.navs {
		navs = append(navs, n)
	}
	uc.mu.Unlock()

	resumed := 0
	for _, n := range navs {
		if d, ok := n.Resume(); ok && d.Allowed {
			resumed++
		}
	}
	return resumed
}

// Close detaches every navigator from the session.
func (uc *HandleMessageUsecase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for id, n := range uc.navs {
		n.Close()
		delete(uc.navs, id)
	}
}

func (uc *HandleMessageUsecase) allow(senderID string) bool {
	if uc.perMinute <= 0 {
		return true
	}

	uc.mu.Lock()
	l, ok := uc.limiters[senderID]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(uc.perMinute)), uc.perMinute)
		uc.limiters[senderID] = l
	}
	uc.mu.Unlock()

	return l.Allow()
}

func commandView(cmd string) (route.View, bool) {
	switch cmd {
	case "#help", "#bantuan":
		return ViewHelp, true
	case "#lapor", "#report":
		return ViewSubmit, true
	case "#reports", "#laporan":
		return ViewReports, true
	case "#vote":
		return ViewVote, true
	case "#leaderboard":
		return ViewLeaderboard, true
	case "#reputation":
		return ViewReputation, true
	case "#stats":
		return ViewStats, true
	case "#whoami":
		return ViewWhoAmI, true
	case "#predict", "#prediksi":
		return ViewPredict, true
	case "#mypredictions":
		return ViewMyPredicts, true
	case "#users":
		return ViewUsers, true
	}
	return "", false
}
