// Package monitor renders clustering results for offline inspection:
// PNG snapshots of the arena drawn with gonum/plot and HTML charts built
// with go-echarts.
package monitor
