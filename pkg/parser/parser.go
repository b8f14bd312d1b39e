// Package parser implements the uuu language parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
	"github.com/thomasrohde/uuu/pkg/lexer"
)

// MaxArgs is the largest number of parameters or call arguments accepted.
const MaxArgs = 255

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST. Parsing stops at the
// first syntax error, which is returned as the only diagnostic.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// IsIncomplete reports whether diags describe input that ended too early,
// such as an unclosed block or string. An interactive reader uses it to ask
// for another line.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	for _, d := range diags {
		if d.Code == diagnostics.EUnexpectedEOF {
			return true
		}
	}
	return false
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) match(types ...lexer.TokenType) bool {
	for _, typ := range types {
		if p.peek() == typ {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(typ lexer.TokenType, context string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s %s, got %s", tokenName(typ), context, describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

// addError records a syntax error. Errors reported at end of input use a
// distinct code so callers can tell incomplete input from malformed input.
func (p *parser) addError(msg string, span *ast.Span) {
	code := diagnostics.EParse
	if p.peek() == lexer.TokEOF {
		code = diagnostics.EUnexpectedEOF
	}
	p.diags = append(p.diags, diagnostics.MakeDiag(code, msg, span, ""))
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// spanFrom closes a span at the end of the last consumed token.
func (p *parser) spanFrom(start ast.Span) ast.Span {
	return p.spanFromTo(start, p.previous().Span)
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokColon:
		return "':'"
	case lexer.TokSemicolon:
		return "';'"
	case lexer.TokComma:
		return "','"
	case lexer.TokDot:
		return "'.'"
	case lexer.TokEquals:
		return "'='"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokStringLit:
		return "string"
	case lexer.TokNumberLit:
		return "number"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEOF:
		return "end of file"
	case lexer.TokStringLit:
		return "string"
	default:
		return fmt.Sprintf("'%s'", tok.Value)
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseDeclaration()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// --- Declarations ---

func (p *parser) parseDeclaration() ast.Stmt {
	switch p.peek() {
	case lexer.TokClass:
		s := p.parseClassDecl()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokFn:
		s := p.parseFnDecl("function")
		if s == nil {
			return nil
		}
		return s
	case lexer.TokVar:
		s := p.parseVarDecl()
		if s == nil {
			return nil
		}
		return s
	default:
		return p.parseStatement()
	}
}

func (p *parser) parseClassDecl() *ast.ClassStmt {
	start := p.advance() // consume 'class'
	nameTok, ok := p.expect(lexer.TokIdent, "after 'class'")
	if !ok {
		return nil
	}

	var superclass *ast.VariableExpr
	if p.match(lexer.TokLt) {
		superTok, ok := p.expect(lexer.TokIdent, "as superclass name")
		if !ok {
			return nil
		}
		superclass = &ast.VariableExpr{Span: superTok.Span, Name: superTok.Value}
	}

	if _, ok := p.expect(lexer.TokLBrace, "before class body"); !ok {
		return nil
	}
	var methods []*ast.FnStmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		if p.peek() != lexer.TokFn {
			tok := p.current()
			p.addError(fmt.Sprintf("expected method declaration in class body, got %s", describe(tok)), &tok.Span)
			return nil
		}
		m := p.parseFnDecl("method")
		if m == nil {
			return nil
		}
		methods = append(methods, m)
	}
	if _, ok := p.expect(lexer.TokRBrace, "after class body"); !ok {
		return nil
	}

	return &ast.ClassStmt{
		Span:       p.spanFrom(start.Span),
		Name:       nameTok.Value,
		Superclass: superclass,
		Methods:    methods,
	}
}

func (p *parser) parseFnDecl(kind string) *ast.FnStmt {
	start := p.advance() // consume 'fn'
	nameTok, ok := p.expect(lexer.TokIdent, kind+" name")
	if !ok {
		return nil
	}

	if _, ok := p.expect(lexer.TokLParen, "after "+kind+" name"); !ok {
		return nil
	}
	var params []ast.Param
	if p.peek() != lexer.TokRParen {
		for {
			if len(params) >= MaxArgs {
				tok := p.current()
				p.addError(fmt.Sprintf("can't have more than %d parameters", MaxArgs), &tok.Span)
				return nil
			}
			paramTok, ok := p.expect(lexer.TokIdent, "as parameter name")
			if !ok {
				return nil
			}
			params = append(params, ast.Param{Name: paramTok.Value, Span: paramTok.Span})
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after parameters"); !ok {
		return nil
	}

	if p.peek() != lexer.TokLBrace {
		tok := p.current()
		p.addError(fmt.Sprintf("expected '{' before %s body, got %s", kind, describe(tok)), &tok.Span)
		return nil
	}
	body, ok := p.parseBlockBody()
	if !ok {
		return nil
	}

	return &ast.FnStmt{
		Span:   p.spanFrom(start.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseVarDecl() *ast.VarStmt {
	start := p.advance() // consume 'var'
	nameTok, ok := p.expect(lexer.TokIdent, "after 'var'")
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.match(lexer.TokEquals) {
		init = p.parseExpr()
		if init == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after variable declaration"); !ok {
		return nil
	}

	return &ast.VarStmt{
		Span: p.spanFrom(start.Span),
		Name: nameTok.Value,
		Init: init,
	}
}

// --- Statements ---

func (p *parser) parseStatement() ast.Stmt {
	switch p.peek() {
	case lexer.TokIf:
		s := p.parseIfStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokWhile:
		s := p.parseWhileStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokFor:
		s := p.parseForStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokReturn:
		s := p.parseReturnStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokBreak:
		start := p.advance()
		if _, ok := p.expect(lexer.TokSemicolon, "after 'break'"); !ok {
			return nil
		}
		return &ast.BreakStmt{Span: p.spanFrom(start.Span)}
	case lexer.TokContinue:
		start := p.advance()
		if _, ok := p.expect(lexer.TokSemicolon, "after 'continue'"); !ok {
			return nil
		}
		return &ast.ContinueStmt{Span: p.spanFrom(start.Span)}
	case lexer.TokLBrace:
		s := p.parseBlockStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokSwitch:
		tok := p.current()
		p.addError("'switch' is a reserved word and cannot be used", &tok.Span)
		return nil
	default:
		s := p.parseExprStmt()
		if s == nil {
			return nil
		}
		return s
	}
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	if _, ok := p.expect(lexer.TokLParen, "after 'if'"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, "after if condition"); !ok {
		return nil
	}

	then := p.parseStatement()
	if then == nil {
		return nil
	}
	var els ast.Stmt
	if p.match(lexer.TokElse) {
		els = p.parseStatement()
		if els == nil {
			return nil
		}
	}

	return &ast.IfStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	if _, ok := p.expect(lexer.TokLParen, "after 'while'"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, "after while condition"); !ok {
		return nil
	}
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Body: body,
	}
}

func (p *parser) parseForStmt() *ast.ForStmt {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen, "after 'for'"); !ok {
		return nil
	}

	var init ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokVar:
		v := p.parseVarDecl()
		if v == nil {
			return nil
		}
		init = v
	default:
		e := p.parseExprStmt()
		if e == nil {
			return nil
		}
		init = e
	}

	var cond ast.Expr
	if p.peek() != lexer.TokSemicolon {
		cond = p.parseExpr()
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after loop condition"); !ok {
		return nil
	}

	var incr ast.Expr
	if p.peek() != lexer.TokRParen {
		incr = p.parseExpr()
		if incr == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after for clauses"); !ok {
		return nil
	}

	body := p.parseStatement()
	if body == nil {
		return nil
	}

	return &ast.ForStmt{
		Span: p.spanFrom(start.Span),
		Init: init,
		Cond: cond,
		Incr: incr,
		Body: body,
	}
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	var value ast.Expr
	if p.peek() != lexer.TokSemicolon {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after return value"); !ok {
		return nil
	}
	return &ast.ReturnStmt{
		Span:  p.spanFrom(start.Span),
		Value: value,
	}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "after expression"); !ok {
		return nil
	}
	return &ast.ExprStmt{
		Span: p.spanFrom(expr.NodeSpan()),
		Expr: expr,
	}
}

// --- Block ---

func (p *parser) parseBlockStmt() *ast.BlockStmt {
	start := p.current().Span
	stmts, ok := p.parseBlockBody()
	if !ok {
		return nil
	}
	return &ast.BlockStmt{
		Span:       p.spanFrom(start),
		Statements: stmts,
	}
}

func (p *parser) parseBlockBody() ([]ast.Stmt, bool) {
	if _, ok := p.expect(lexer.TokLBrace, "to open block"); !ok {
		return nil, false
	}
	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseDeclaration()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
	}
	if _, ok := p.expect(lexer.TokRBrace, "after block"); !ok {
		return nil, false
	}
	return stmts, true
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	target := p.parseTernary()
	if target == nil {
		return nil
	}
	if p.peek() != lexer.TokEquals {
		return target
	}

	eq := p.advance()
	value := p.parseAssignment()
	if value == nil {
		return nil
	}

	switch t := target.(type) {
	case *ast.VariableExpr:
		return &ast.AssignExpr{
			Span:  p.spanFromTo(t.Span, value.NodeSpan()),
			Name:  t.Name,
			Value: value,
		}
	case *ast.GetExpr:
		return &ast.SetExpr{
			Span:   p.spanFromTo(t.Span, value.NodeSpan()),
			Object: t.Object,
			Name:   t.Name,
			Value:  value,
		}
	default:
		p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, "invalid assignment target", &eq.Span,
			"only variables and properties can be assigned"))
		return nil
	}
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseOr()
	if cond == nil {
		return nil
	}
	if !p.match(lexer.TokQuestion) {
		return cond
	}
	then := p.parseExpr()
	if then == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon, "in conditional expression"); !ok {
		return nil
	}
	els := p.parseTernary()
	if els == nil {
		return nil
	}
	return &ast.TernaryExpr{
		Span: p.spanFromTo(cond.NodeSpan(), els.NodeSpan()),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.match(lexer.TokOr) {
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	if left == nil {
		return nil
	}
	for p.match(lexer.TokAnd) {
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

// --- Precedence climbing ---

// binaryLevel parses a left-associative chain of the operators in ops,
// with next parsing each operand.
func (p *parser) binaryLevel(next func() ast.Expr, ops map[lexer.TokenType]ast.BinaryOp) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}

	for {
		op, ok := ops[p.peek()]
		if !ok {
			return left
		}
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

var (
	equalityOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokEqEq:   ast.OpEqEq,
		lexer.TokBangEq: ast.OpNeq,
	}
	comparisonOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokGt:   ast.OpGt,
		lexer.TokGtEq: ast.OpGtEq,
		lexer.TokLt:   ast.OpLt,
		lexer.TokLtEq: ast.OpLtEq,
	}
	termOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokPlus:  ast.OpAdd,
		lexer.TokMinus: ast.OpSub,
	}
	factorOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokStar:  ast.OpMul,
		lexer.TokSlash: ast.OpDiv,
	}
)

func (p *parser) parseEquality() ast.Expr {
	return p.binaryLevel(p.parseComparison, equalityOps)
}

func (p *parser) parseComparison() ast.Expr {
	return p.binaryLevel(p.parseTerm, comparisonOps)
}

func (p *parser) parseTerm() ast.Expr {
	return p.binaryLevel(p.parseFactor, termOps)
}

func (p *parser) parseFactor() ast.Expr {
	return p.binaryLevel(p.parseUnary, factorOps)
}

func (p *parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parseCall()
	}
	start := p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.peek() {
		case lexer.TokLParen:
			p.advance()
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			expr = &ast.CallExpr{
				Span:   p.spanFrom(expr.NodeSpan()),
				Callee: expr,
				Args:   args,
			}
		case lexer.TokDot:
			p.advance()
			nameTok, ok := p.expect(lexer.TokIdent, "as property name after '.'")
			if !ok {
				return nil
			}
			expr = &ast.GetExpr{
				Span:   p.spanFromTo(expr.NodeSpan(), nameTok.Span),
				Object: expr,
				Name:   nameTok.Value,
			}
		default:
			return expr
		}
	}
}

// parseArguments parses a call's argument list; the '(' is already consumed.
func (p *parser) parseArguments() ([]ast.Expr, bool) {
	var args []ast.Expr
	if p.peek() != lexer.TokRParen {
		for {
			if len(args) >= MaxArgs {
				tok := p.current()
				p.addError(fmt.Sprintf("can't have more than %d arguments", MaxArgs), &tok.Span)
				return nil, false
			}
			arg := p.parseExpr()
			if arg == nil {
				return nil, false
			}
			args = append(args, arg)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "after arguments"); !ok {
		return nil, false
	}
	return args, true
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		start := p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "after expression"); !ok {
			return nil
		}
		return &ast.GroupingExpr{Span: p.spanFrom(start.Span), Expr: expr}

	case lexer.TokNumberLit:
		tok := p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid number literal '%s'", tok.Value), &tok.Span)
			return nil
		}
		return &ast.NumberLiteral{Span: tok.Span, Value: val}

	case lexer.TokStringLit:
		tok := p.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokTrue:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokNull:
		tok := p.advance()
		return &ast.NullLiteral{Span: tok.Span}

	case lexer.TokIdent:
		tok := p.advance()
		return &ast.VariableExpr{Span: tok.Span, Name: tok.Value}

	case lexer.TokSelf:
		tok := p.advance()
		return &ast.SelfExpr{Span: tok.Span}

	case lexer.TokSuper:
		start := p.advance()
		if _, ok := p.expect(lexer.TokDot, "after 'super'"); !ok {
			return nil
		}
		nameTok, ok := p.expect(lexer.TokIdent, "as superclass method name")
		if !ok {
			return nil
		}
		return &ast.SuperExpr{Span: p.spanFromTo(start.Span, nameTok.Span), Method: nameTok.Value}

	default:
		tok := p.current()
		if tok.Type == lexer.TokEOF {
			p.addError("expected expression, got end of file", &tok.Span)
		} else {
			p.addError(fmt.Sprintf("unexpected token %s", describe(tok)), &tok.Span)
		}
		return nil
	}
}
