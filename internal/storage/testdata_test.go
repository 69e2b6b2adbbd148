package storage

const testDataset = `
customers:
  - id: 1
    name: Ada Lovelace
    user_id: 7
    emails: [a@x.com, c@x.com]
  - id: 2
    name: Grace Hopper
    emails: [grace@x.com]
payments:
  - id: 100
    date: "2024-05-03T10:00:00Z"
    status: publish
    amount: 49.5
    currency: USD
    gateway: paypal
    email: c@x.com
    notes:
      - "PayPal Transaction ID: TX123"
    items:
      - product_id: 5
        title: Pro plugin
        price_option: Single site
        files:
          - name: pro.zip
            url: https://shop.example.com/dl/pro.zip
  - id: 101
    date: "2024-05-10"
    status: refunded
    amount: 10
    currency: EUR
    gateway: manual
    email: a@x.com
licenses:
  - id: 1
    key: KEY-A
    product_id: 5
    payment_id: 100
    customer_id: 1
    activation_limit: 3
    activation_count: 1
    expires_at: "2025-05-03T10:00:00Z"
    status: active
    sites: [example.org, https://ada.dev]
    upgrades:
      - product_title: Agency
        price_option: Unlimited
        price: 99
        currency: USD
        purchase_url: https://shop.example.com/checkout?upgrade=1
  - id: 2
    key: KEY-B
    product_id: 5
    payment_id: 100
    customer_id: 1
    lifetime: true
    status: inactive
    parent_id: 1
subscriptions:
  - id: 3
    customer_id: 1
    product_title: Pro yearly
    status: active
`
