// Package metrics exports tracking pipeline activity to Prometheus.
//
//	m := metrics.New()
//	m.MustRegister(prometheus.DefaultRegisterer)
//
//	sender, _ := collector.NewSender(url, collector.WithOnDelivery(m.ObserveDelivery))
//	p, _ := tracking.New(sender, store, tracking.WithObserver(m))
//
// All metric names carry the "honeytracks_" prefix.
package metrics
