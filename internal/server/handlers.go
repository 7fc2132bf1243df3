package server

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"MarketDash/internal/model"
	"MarketDash/internal/workbook"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.^=\-]{0,14}$`)

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.collector.Fetcher.Name(),
	})
}

func (s *Server) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbols":  s.opts.Symbols,
		"restrict": s.opts.Restrict,
	})
}

// resolveSymbol canonicalizes the :symbol parameter and enforces the catalog.
func (s *Server) resolveSymbol(c *gin.Context) {
	sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if !symbolPattern.MatchString(sym) {
		s.abort(c, http.StatusBadRequest, fmt.Sprintf("invalid symbol %q", c.Param("symbol")))
		return
	}
	if s.opts.Restrict && !s.catalog[sym] {
		s.abort(c, http.StatusBadRequest, fmt.Sprintf("symbol %s is not in the catalog", sym))
		return
	}
	c.Set("symbol", sym)
	c.Next()
}

// chartTimeframe reads ?view=daily|intraday, or an explicit ?period=&interval= pair.
func chartTimeframe(c *gin.Context) (model.Timeframe, error) {
	period, interval := c.Query("period"), c.Query("interval")
	if period != "" || interval != "" {
		tf := model.Timeframe{Period: model.Period(period), Interval: model.Interval(interval)}
		return tf, tf.Validate()
	}
	switch c.DefaultQuery("view", "daily") {
	case "daily":
		return model.DailyYear, nil
	case "intraday":
		return model.IntradayDay, nil
	default:
		return model.Timeframe{}, fmt.Errorf("%w: unknown view %q", model.ErrInvalidTimeframe, c.Query("view"))
	}
}

func (s *Server) getChart(c *gin.Context) {
	tf, err := chartTimeframe(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	chart, err := s.collector.Collect(c.Request.Context(), c.GetString("symbol"), tf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.collector.Profile(c.Request.Context(), c.GetString("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getReport(c *gin.Context) {
	doc, err := s.assembler.Assemble(c.Request.Context(), c.GetString("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) getWorkbook(c *gin.Context) {
	sym := c.GetString("symbol")
	doc, err := s.assembler.Assemble(c.Request.Context(), sym)
	if err != nil {
		s.fail(c, err)
		return
	}
	buf, err := workbook.Serialize(doc)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, workbook.Filename(sym)))
	c.Data(http.StatusOK, workbook.ContentType, buf.Bytes())
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch model.Kind(err) {
	case model.ErrInvalidTimeframe:
		return http.StatusBadRequest
	case model.ErrDataUnavailable:
		return http.StatusNotFound
	case model.ErrProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	ev := s.logger.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		ev = s.logger.Error()
	}
	ev.Str("request_id", c.GetString("request_id")).Str("path", c.Request.URL.Path).Err(err).Msg("request failed")
	s.abort(c, status, err.Error())
}

func (s *Server) abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"request_id": c.GetString("request_id"),
	})
}
