package main

import (
    "compress/gzip"
    "io"
    "net/http"
    "strings"
    "sync"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id or assigns a new one.
func requestID() gin.HandlerFunc {
    return func(c *gin.Context) {
        id := c.GetHeader(requestIDHeader)
        if id == "" {
            id = uuid.NewString()
        }
        c.Set("request_id", id)
        c.Header(requestIDHeader, id)
        c.Next()
    }
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
    return func(c *gin.Context) {
        // health probes are noise
        if c.Request.URL.Path == "/health" {
            c.Next()
            return
        }
        start := time.Now()
        c.Next()
        logger.Info("request",
            zap.String("method", c.Request.Method),
            zap.String("path", c.Request.URL.Path),
            zap.Int("status", c.Writer.Status()),
            zap.Duration("took", time.Since(start)),
            zap.String("request_id", c.GetString("request_id")),
        )
    }
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
    return gin.CustomRecovery(func(c *gin.Context, rec any) {
        logger.Error("panic in handler",
            zap.Any("panic", rec),
            zap.String("path", c.Request.URL.Path),
            zap.String("request_id", c.GetString("request_id")),
        )
        c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
    })
}

// cors opens every endpoint to browser clients on any origin.
func cors() gin.HandlerFunc {
    return func(c *gin.Context) {
        c.Header("Access-Control-Allow-Origin", "*")
        c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
        c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID")
        if c.Request.Method == http.MethodOptions {
            c.AbortWithStatus(http.StatusNoContent)
            return
        }
        c.Next()
    }
}

// gzipped compresses responses when the client supports gzip.
func gzipped() gin.HandlerFunc {
    pool := sync.Pool{New: func() any {
        // JSON payloads: favour speed over ratio
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return func(c *gin.Context) {
        if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || c.Request.Method == http.MethodHead {
            c.Next()
            return
        }
        orig := c.Writer
        gz := pool.Get().(*gzip.Writer)
        gz.Reset(orig)
        defer func() {
            // writes after this point (recovery) must not reach a pooled writer
            c.Writer = orig
            if rec := recover(); rec != nil {
                // nothing compressed has been flushed yet; let recovery
                // write a plain error response
                orig.Header().Del("Content-Encoding")
                orig.Header().Del("Vary")
                gz.Reset(io.Discard)
                pool.Put(gz)
                panic(rec)
            }
            _ = gz.Close()
            gz.Reset(io.Discard)
            pool.Put(gz)
        }()
        c.Header("Content-Encoding", "gzip")
        c.Writer.Header().Add("Vary", "Accept-Encoding")
        c.Writer = &gzipWriter{ResponseWriter: orig, gz: gz}
        c.Next()
    }
}

type gzipWriter struct {
    gin.ResponseWriter
    gz *gzip.Writer
}

func (g *gzipWriter) Write(b []byte) (int, error) {
    g.Header().Del("Content-Length")
    return g.gz.Write(b)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
    g.Header().Del("Content-Length")
    return g.gz.Write([]byte(s))
}
