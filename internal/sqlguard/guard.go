// Package sqlguard admits only single, read-only statements for execution.
package sqlguard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	_ "github.com/pingcap/tidb/parser/test_driver"

	"github.com/sqler/sqler/internal/database"
)

var (
	ErrEmpty              = errors.New("statement is empty")
	ErrMultipleStatements = errors.New("exactly one statement is allowed")
	ErrNotReadOnly        = errors.New("only read queries are allowed")
	ErrUnparsable         = errors.New("statement could not be parsed")
)

// Guard checks model-generated SQL before it reaches the database. MySQL is
// checked against a full parse tree; other dialects get a lexical check.
type Guard struct {
	dialect database.Dialect

	mu     sync.Mutex
	parser *parser.Parser
}

func New(dialect database.Dialect) *Guard {
	g := &Guard{dialect: dialect}
	if dialect == database.DialectMySQL || dialect == "" {
		g.parser = parser.New()
	}
	return g
}

// Check returns sql without trailing semicolons when it is a single read
// query, and a wrapped sentinel error otherwise.
func (g *Guard) Check(sql string) (string, error) {
	cleaned := stripTrailingSemicolons(sql)
	if cleaned == "" {
		return "", ErrEmpty
	}
	if g.parser != nil {
		if err := g.checkParsed(cleaned); err != nil {
			return "", err
		}
		return cleaned, nil
	}
	if err := checkLexical(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}

func (g *Guard) checkParsed(sql string) error {
	g.mu.Lock()
	stmts, _, err := g.parser.Parse(sql, "", "")
	g.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if len(stmts) == 0 {
		return ErrEmpty
	}
	if len(stmts) > 1 {
		return ErrMultipleStatements
	}

	switch stmt := stmts[0].(type) {
	case *ast.SelectStmt, *ast.SetOprStmt:
		v := &readOnlyVisitor{}
		stmt.Accept(v)
		if v.reason != "" {
			return fmt.Errorf("%w: %s", ErrNotReadOnly, v.reason)
		}
		return nil
	default:
		return fmt.Errorf("%w: got %s", ErrNotReadOnly, statementKind(stmt))
	}
}

// readOnlyVisitor rejects SELECT ... INTO and locking reads anywhere in the
// tree, including inside subqueries and unions.
type readOnlyVisitor struct {
	reason string
}

func (v *readOnlyVisitor) Enter(in ast.Node) (ast.Node, bool) {
	if sel, ok := in.(*ast.SelectStmt); ok {
		if sel.SelectIntoOpt != nil {
			v.reason = "SELECT ... INTO writes data"
			return in, true
		}
		if sel.LockInfo != nil && sel.LockInfo.LockType != ast.SelectLockNone {
			v.reason = "locking reads are not allowed"
			return in, true
		}
	}
	return in, false
}

func (v *readOnlyVisitor) Leave(in ast.Node) (ast.Node, bool) {
	return in, true
}

func statementKind(stmt ast.StmtNode) string {
	name := fmt.Sprintf("%T", stmt)
	name = strings.TrimPrefix(name, "*ast.")
	return strings.TrimSuffix(name, "Stmt")
}

func stripTrailingSemicolons(sql string) string {
	trimmed := strings.TrimSpace(sql)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
