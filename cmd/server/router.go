package main

import (
    "net/http"

    "github.com/gin-gonic/gin"
    "go.uber.org/zap"
)

func newRouter(a *api, logger *zap.Logger) *gin.Engine {
    r := gin.New()
    r.Use(recovery(logger), requestID(), accessLog(logger), cors(), gzipped())

    r.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"status": "ok"})
    })

    g := r.Group("/api")
    g.GET("/stocks", a.listStocks)
    g.GET("/stocks/:ticker", a.getStock)
    g.GET("/market/movers", a.marketMovers)
    g.GET("/fetches", a.recentFetches)
    g.GET("/status", a.status)

    r.NoRoute(func(c *gin.Context) {
        c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
    })
    return r
}
