// Command league is a CLI client for the league command service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/league-keeper/internal/command"
	"github.com/and161185/league-keeper/internal/convert"
	"github.com/and161185/league-keeper/internal/model"
	grpcserver "github.com/and161185/league-keeper/internal/server/grpc"
	"github.com/and161185/league-keeper/internal/service"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "league")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "league")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (run `league token` first)")
	}
	return tf.AccessToken, nil
}

// ---- grpc dial ----

type bearerCreds struct{ token string }

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return true }

func loadTLS(caPath string, insecure bool) (credentials.TransportCredentials, error) {
	if insecure {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

func dial(addr, caPath string, insecure bool, bearer string) (*grpc.ClientConn, *grpcserver.Client, error) {
	creds, err := loadTLS(caPath, insecure)
	if err != nil {
		return nil, nil, err
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer}))
	}
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, grpcserver.NewClient(cc), nil
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func printReply(w io.Writer, s *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// parseRights turns "manage_teams,input_results" into access rights.
func parseRights(csv string) (model.Access, error) {
	var a model.Access
	for _, r := range strings.Split(csv, ",") {
		switch strings.TrimSpace(r) {
		case "":
		case service.RightManageGames:
			a.ManageGames = true
		case service.RightManageScores:
			a.ManageScores = true
		case service.RightInputResults:
			a.InputResults = true
		case service.RightManageTeams:
			a.ManageTeams = true
		case service.RightManageSeasons:
			a.ManageSeasons = true
		case service.RightManageTournaments:
			a.ManageTournaments = true
		default:
			return model.Access{}, fmt.Errorf("unknown right %q", r)
		}
	}
	return a, nil
}

// buildApply wraps a JSON payload into an apply request.
func buildApply(kind string, payload []byte) (*structpb.Struct, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return convert.ToProtoApply(command.Kind(kind), doc)
}

// ---- commands ----

func cmdToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	key := fs.String("jwt-key", os.Getenv("LEAGUE_JWT_KEY"), "HS256 signing key of the server")
	name := fs.String("name", "", "user name recorded as editor")
	team := fs.String("team", "", "team id for team-scoped users")
	rights := fs.String("rights", "", "comma-separated rights")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if *key == "" {
		return errors.New("missing --jwt-key")
	}
	access, err := parseRights(*rights)
	if err != nil {
		return err
	}
	user := model.User{Name: *name, Access: access}
	if *team != "" {
		id, err := u.FromString(*team)
		if err != nil {
			return fmt.Errorf("bad --team: %w", err)
		}
		user.TeamID = &id
	}
	tok, exp, err := service.NewAuthenticator([]byte(*key), *ttl).Issue(user)
	if err != nil {
		return err
	}
	if err := saveToken(tok, exp); err != nil {
		return err
	}
	fmt.Println("token saved until", exp.Format(time.RFC3339))
	return nil
}

type connFlags struct {
	addr     *string
	ca       *string
	insecure *bool
}

func addConnFlags(fs *flag.FlagSet) connFlags {
	return connFlags{
		addr:     fs.String("addr", "localhost:8443", "server address"),
		ca:       fs.String("ca", "", "CA certificate (PEM)"),
		insecure: fs.Bool("insecure", false, "skip TLS verification (dev only)"),
	}
}

func (c connFlags) dial() (*grpc.ClientConn, *grpcserver.Client, error) {
	tok, err := loadToken()
	if err != nil {
		// anonymous calls are allowed, commands refuse them as not logged in
		tok = ""
	}
	return dial(*c.addr, *c.ca, *c.insecure, tok)
}

func cmdApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	conn := addConnFlags(fs)
	kind := fs.String("kind", "", "command kind: team, season, team_season, game, tournament_game")
	file := fs.String("file", "-", "payload JSON file, - for stdin")
	_ = fs.Parse(args)

	payload, err := readAll(*file)
	if err != nil {
		return err
	}
	req, err := buildApply(*kind, payload)
	if err != nil {
		return err
	}
	cc, cl, err := conn.dial()
	if err != nil {
		return err
	}
	defer cc.Close()
	resp, err := cl.Apply(ctx, req)
	if err != nil {
		return err
	}
	return printReply(os.Stdout, resp)
}

func cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	conn := addConnFlags(fs)
	kind := fs.String("kind", "", "command kind")
	id := fs.String("id", "", "entity id")
	last := fs.String("last-updated", "", "last updated token (RFC 3339)")
	_ = fs.Parse(args)

	fields := map[string]any{convert.FieldKind: *kind, convert.FieldID: *id}
	if *last != "" {
		fields[convert.FieldLastUpdated] = *last
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return err
	}
	cc, cl, err := conn.dial()
	if err != nil {
		return err
	}
	defer cc.Close()
	resp, err := cl.Delete(ctx, req)
	if err != nil {
		return err
	}
	return printReply(os.Stdout, resp)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: league <command> [flags]

commands:
  token    issue and store an access token
  apply    create or update an entity from a JSON payload
  delete   soft-delete an entity`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "token":
		err = cmdToken(os.Args[2:])
	case "apply":
		err = cmdApply(ctx, os.Args[2:])
	case "delete":
		err = cmdDelete(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
